package chat

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// SendErrKind classifies why a push to a session failed. The router evicts on
// every kind; the classification only feeds logging.
type SendErrKind int

const (
	SendErrNone SendErrKind = iota
	SendErrClosed
	SendErrTimeout
	SendErrOther
)

func (k SendErrKind) String() string {
	switch k {
	case SendErrClosed:
		return "closed"
	case SendErrTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// ClassifySendErr maps a transport error to its kind.
func ClassifySendErr(err error) SendErrKind {
	if err == nil {
		return SendErrNone
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || err == websocket.ErrCloseSent {
		return SendErrClosed
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return SendErrTimeout
	}
	return SendErrOther
}

// Session is one live websocket bound to one authenticated user. It owns the
// conn; all writes go through Send so they are serialized and carry a write
// deadline, so a stalled peer fails fast instead of wedging the router.
type Session struct {
	UserID string

	conn     *websocket.Conn
	deadline time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func NewSession(userID string, conn *websocket.Conn, writeDeadline time.Duration) *Session {
	if writeDeadline <= 0 {
		writeDeadline = 5 * time.Second
	}
	return &Session{
		UserID:   userID,
		conn:     conn,
		deadline: writeDeadline,
	}
}

// Send pushes one text frame to the peer.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.deadline)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close releases the transport. Idempotent; closing also unblocks a pending
// read on the conn.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		_ = s.conn.Close()
	})
}

// Alive reports whether Close has been called.
func (s *Session) Alive() bool { return !s.closed.Load() }
