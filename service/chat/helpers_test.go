package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSPair spins up a throwaway websocket server and returns both ends of
// one connection: the server side (the session transport) and the client side
// (the peer the tests read from).
func newWSPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	serverCh := make(chan *websocket.Conn, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverCh <- c
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server = <-serverCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server side of ws pair")
	}
	t.Cleanup(func() { _ = server.Close() })
	return server, client
}

// readRecord reads one frame from conn and decodes it as a MessageRecord.
func readRecord(t *testing.T, conn *websocket.Conn) *MessageRecord {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var rec MessageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode record: %v (raw %q)", err, data)
	}
	return &rec
}

// readErrorFrame reads one frame and decodes it as an ErrorFrame.
func readErrorFrame(t *testing.T, conn *websocket.Conn) *ErrorFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	var ef ErrorFrame
	if err := json.Unmarshal(data, &ef); err != nil {
		t.Fatalf("decode error frame: %v (raw %q)", err, data)
	}
	if ef.Error == "" {
		t.Fatalf("expected error frame, got %q", data)
	}
	return &ef
}
