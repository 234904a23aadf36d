package chat

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type fakeStore struct {
	mu    sync.Mutex
	saved []*MessageRecord
	fail  bool
}

func (f *fakeStore) SaveMessage(ctx context.Context, sender Identity, recipient uuid.UUID, content string) (*MessageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("db down")
	}
	rec := &MessageRecord{
		ID:             uuid.NewString(),
		SenderID:       sender.ID.String(),
		SenderUsername: sender.Username,
		RecipientID:    recipient.String(),
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	f.saved = append(f.saved, rec)
	return rec, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeStore) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

type fakeResolver struct {
	users map[string]Identity // token -> identity
}

func (f *fakeResolver) Resolve(ctx context.Context, credential string) (Identity, error) {
	ident, ok := f.users[credential]
	if !ok {
		return Identity{}, errors.New("bad token")
	}
	return ident, nil
}

type wsFixture struct {
	srv   *Server
	store *fakeStore
	url   string

	alice Identity
	bob   Identity
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &wsFixture{
		store: &fakeStore{},
		alice: Identity{ID: uuid.New(), Username: "alice"},
		bob:   Identity{ID: uuid.New(), Username: "bob"},
	}
	resolver := &fakeResolver{users: map[string]Identity{
		"tok-alice": f.alice,
		"tok-bob":   f.bob,
	}}

	reg := NewRegistry()
	f.srv = NewServer(reg, NewRouter(reg), f.store, resolver, ServerConf{
		WriteDeadline: time.Second,
	})

	r := gin.New()
	r.GET("/ws/chat", f.srv.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	f.url = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	return f
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// waitForCount polls until the registry holds want sessions for user.
func waitForCount(t *testing.T, reg *Registry, user string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Count(user) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Count(%s) = %d, want %d", user, reg.Count(user), want)
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	f := newWSFixture(t)

	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token=garbage", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, CloseAuthFailed) {
		t.Fatalf("expected close code %d, got %v", CloseAuthFailed, err)
	}
	if f.srv.Registry().Users() != 0 {
		t.Fatal("failed handshake must not register a session")
	}
}

func TestHandleWS_DeliversToRecipientAndEchoesSender(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, "tok-alice")
	bob1 := f.dial(t, "tok-bob")
	bob2 := f.dial(t, "tok-bob")
	waitForCount(t, f.srv.Registry(), f.bob.ID.String(), 2)
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 1)

	frame := `{"recipient_id":"` + f.bob.ID.String() + `","content":"hello bob"}`
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"bob1": bob1, "bob2": bob2, "alice echo": aliceConn} {
		rec := readRecord(t, conn)
		if rec.Content != "hello bob" {
			t.Fatalf("%s got content %q", name, rec.Content)
		}
		if rec.SenderUsername != "alice" {
			t.Fatalf("%s got sender_username %q", name, rec.SenderUsername)
		}
		if rec.SenderID != f.alice.ID.String() || rec.RecipientID != f.bob.ID.String() {
			t.Fatalf("%s got wrong addressing: %+v", name, rec)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Fatalf("%s record missing server-assigned fields: %+v", name, rec)
		}
	}

	if f.store.count() != 1 {
		t.Fatalf("store has %d messages, want 1", f.store.count())
	}
}

func TestHandleWS_OfflineRecipientStillPersists(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, "tok-alice")
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 1)

	frame := `{"recipient_id":"` + f.bob.ID.String() + `","content":"are you there"}`
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	// sender still gets the echo even with zero recipient sessions
	rec := readRecord(t, aliceConn)
	if rec.Content != "are you there" {
		t.Fatalf("echo content %q", rec.Content)
	}
	if f.store.count() != 1 {
		t.Fatalf("store has %d messages, want 1", f.store.count())
	}
}

func TestHandleWS_MalformedFramesAreRecoverable(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, "tok-alice")
	bobConn := f.dial(t, "tok-bob")
	waitForCount(t, f.srv.Registry(), f.bob.ID.String(), 1)
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 1)

	bad := []string{
		`not json at all`,
		`{"recipient_id":"","content":"x"}`,
		`{"recipient_id":"` + f.bob.ID.String() + `","content":"   "}`,
		`{"recipient_id":"not-a-uuid","content":"x"}`,
	}
	for _, frame := range bad {
		if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write %q: %v", frame, err)
		}
		readErrorFrame(t, aliceConn)
	}

	if f.store.count() != 0 {
		t.Fatalf("store has %d messages after malformed frames, want 0", f.store.count())
	}

	// the session is still open and processes a valid frame
	good := `{"recipient_id":"` + f.bob.ID.String() + `","content":"still here"}`
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
		t.Fatalf("write good frame: %v", err)
	}
	if rec := readRecord(t, bobConn); rec.Content != "still here" {
		t.Fatalf("bob got %q", rec.Content)
	}
}

func TestHandleWS_PersistFailureSkipsFrameKeepsSession(t *testing.T) {
	f := newWSFixture(t)

	aliceConn := f.dial(t, "tok-alice")
	bobConn := f.dial(t, "tok-bob")
	waitForCount(t, f.srv.Registry(), f.bob.ID.String(), 1)
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 1)

	f.store.setFail(true)
	frame := `{"recipient_id":"` + f.bob.ID.String() + `","content":"doomed"}`
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	readErrorFrame(t, aliceConn)
	if f.store.count() != 0 {
		t.Fatalf("store has %d messages after failed persist, want 0", f.store.count())
	}

	// session survives; a retry goes through, and bob's first frame is the
	// retried message, proving the failed frame was never delivered
	f.store.setFail(false)
	retry := `{"recipient_id":"` + f.bob.ID.String() + `","content":"second try"}`
	if err := aliceConn.WriteMessage(websocket.TextMessage, []byte(retry)); err != nil {
		t.Fatalf("write retry: %v", err)
	}
	if rec := readRecord(t, bobConn); rec.Content != "second try" {
		t.Fatalf("bob got %q after retry", rec.Content)
	}
}

func TestHandleWS_DisconnectRemovesSession(t *testing.T) {
	f := newWSFixture(t)

	conn := f.dial(t, "tok-alice")
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 1)

	_ = conn.Close()
	waitForCount(t, f.srv.Registry(), f.alice.ID.String(), 0)

	if f.srv.Registry().Users() != 0 {
		t.Fatalf("Users() = %d after disconnect, want 0", f.srv.Registry().Users())
	}
}
