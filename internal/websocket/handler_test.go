package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/dongibuyeo/dongibuyeo/internal/logging"
	"github.com/google/uuid"
)

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleWebSocketStreamsChallengeEvents(t *testing.T) {
	hub := NewHub(logging.Discard())
	srv := httptest.NewServer(HandleWebSocket(hub, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	watched := uuid.New()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?challenge_id=" + watched.String()
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForClients(t, hub, 1)

	hub.Broadcast(NewMessage("membership", "joined", uuid.New(), "other", nil))
	hub.Broadcast(NewMessage("membership", "joined", watched, "alice", nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ChallengeID != watched || got.ID != "alice" {
		t.Errorf("got %+v, want the watched challenge's event", got)
	}

	conn.Close(ws.StatusNormalClosure, "")
	waitForClients(t, hub, 0)
}

func TestInboundDataMessageClosesConnection(t *testing.T) {
	hub := NewHub(logging.Discard())
	srv := httptest.NewServer(HandleWebSocket(hub, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	waitForClients(t, hub, 1)

	if err := conn.Write(ctx, ws.MessageText, []byte(`{"hello":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err = conn.Read(ctx)
	if got := ws.CloseStatus(err); got != ws.StatusPolicyViolation {
		t.Errorf("close status = %v (err %v), want StatusPolicyViolation", got, err)
	}
	waitForClients(t, hub, 0)
}

func TestHandleWebSocketRejectsBadChallengeID(t *testing.T) {
	hub := NewHub(logging.Discard())
	req := httptest.NewRequest("GET", "/ws?challenge_id=nope", nil)
	rec := httptest.NewRecorder()
	HandleWebSocket(hub, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
