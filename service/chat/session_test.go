package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSession_SendReachesPeer(t *testing.T) {
	server, client := newWSPair(t)
	sess := NewSession("u1", server, time.Second)

	if err := sess.Send([]byte(`{"hello":"world"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(data) != `{"hello":"world"}` {
		t.Fatalf("peer got %q", data)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	server, _ := newWSPair(t)
	sess := NewSession("u1", server, time.Second)

	sess.Close()
	sess.Close() // must not panic

	if sess.Alive() {
		t.Fatal("session reports alive after Close")
	}
	if err := sess.Send([]byte("x")); err == nil {
		t.Fatal("Send after Close should fail")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifySendErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want SendErrKind
	}{
		{"nil", nil, SendErrNone},
		{"close sent", websocket.ErrCloseSent, SendErrClosed},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, SendErrClosed},
		{"timeout", timeoutErr{}, SendErrTimeout},
		{"other", errors.New("boom"), SendErrOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySendErr(tt.err); got != tt.want {
				t.Fatalf("ClassifySendErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
