package chat

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"ChatGate/logger"
	"ChatGate/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// CloseAuthFailed is sent when identity resolution fails at handshake time,
// before the session ever enters the registry.
const CloseAuthFailed = 4001

// Identity is a resolved principal: the immutable user id plus the username
// stamped onto outgoing message records.
type Identity struct {
	ID       uuid.UUID
	Username string
}

// IdentityResolver turns a raw credential into an Identity. Called once per
// handshake.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// MessageStore persists a message and returns the stored record with its
// server-assigned id and timestamp. The pipeline waits for durability before
// any delivery is attempted.
type MessageStore interface {
	SaveMessage(ctx context.Context, sender Identity, recipient uuid.UUID, content string) (*MessageRecord, error)
}

// ServerConf bounds the per-session transport.
type ServerConf struct {
	ReadLimit     int64
	WriteDeadline time.Duration
	PresenceTTL   time.Duration
}

func (c *ServerConf) norm() {
	if c.ReadLimit <= 0 {
		c.ReadLimit = 1 << 20
	}
	if c.WriteDeadline <= 0 {
		c.WriteDeadline = 5 * time.Second
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 2 * time.Minute
	}
}

// Server owns the websocket ingress: handshake, per-session read loop,
// validation, persist-then-deliver.
type Server struct {
	reg    *Registry
	router *Router
	store  MessageStore
	ids    IdentityResolver
	conf   ServerConf
}

func NewServer(reg *Registry, router *Router, store MessageStore, ids IdentityResolver, conf ServerConf) *Server {
	conf.norm()
	return &Server{reg: reg, router: router, store: store, ids: ids, conf: conf}
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Router() *Router     { return s.router }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS serves GET /ws/chat?token=...
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	ident, err := s.ids.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		logger.Infof("[ws] handshake rejected: %v", err)
		deadline := time.Now().Add(s.conf.WriteDeadline)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseAuthFailed, "authentication failed"), deadline)
		_ = ws.Close()
		return
	}

	user := ident.ID.String()
	sess := NewSession(user, ws, s.conf.WriteDeadline)
	s.reg.Add(user, sess)
	if err := storage.PresenceOnline(context.Background(), user, s.conf.PresenceTTL); err != nil {
		logger.Warnf("[ws] presence online user=%s err=%v", user, err)
	}
	logger.Infof("[ws] open user=%s sessions=%d", user, s.reg.Count(user))

	defer s.teardown(user, sess)

	ws.SetReadLimit(s.conf.ReadLimit)

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed user=%s err=%v", user, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout user=%s err=%v", user, rerr)
			} else {
				logger.Infof("[ws] read err user=%s err=%v", user, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		if !s.handleFrame(c.Request.Context(), ident, sess, data) {
			return
		}
	}
}

// handleFrame processes one inbound frame. Returns false only when the
// session can no longer be written to and the read loop should exit.
func (s *Server) handleFrame(ctx context.Context, ident Identity, sess *Session, data []byte) bool {
	frame, err := ParseInboundFrame(data)
	if err != nil {
		logger.Infof("[ws] bad frame user=%s err=%v len=%d", ident.ID, err, len(data))
		return s.sendError(sess, "invalid frame")
	}

	content := strings.TrimSpace(frame.Content)
	if frame.RecipientID == "" || content == "" {
		return s.sendError(sess, "recipient_id and content are required")
	}

	recipient, err := uuid.Parse(frame.RecipientID)
	if err != nil {
		return s.sendError(sess, "invalid recipient_id")
	}

	// Durability first. A persistence failure aborts this frame but keeps the
	// session; the client may retry.
	rec, err := s.store.SaveMessage(ctx, ident, recipient, content)
	if err != nil {
		logger.Errorf("[ws] persist failed user=%s recipient=%s err=%v", ident.ID, recipient, err)
		return s.sendError(sess, "message could not be stored")
	}

	s.router.Deliver(recipient.String(), rec)
	// echo to the sender's own sessions for multi-device sync
	s.router.Deliver(ident.ID.String(), rec)
	return true
}

func (s *Server) sendError(sess *Session, reason string) bool {
	data, _ := json.Marshal(ErrorFrame{Error: reason})
	if err := sess.Send(data); err != nil {
		logger.Infof("[ws] error frame send failed user=%s kind=%s err=%v",
			sess.UserID, ClassifySendErr(err), err)
		return false
	}
	return true
}

func (s *Server) teardown(user string, sess *Session) {
	s.reg.Remove(user, sess)
	sess.Close()

	remaining := s.reg.Count(user)
	if remaining == 0 {
		if err := storage.PresenceOffline(context.Background(), user); err != nil {
			logger.Warnf("[ws] presence offline user=%s err=%v", user, err)
		}
	}
	logger.Infof("[ws] closed user=%s sessions=%d", user, remaining)
}
