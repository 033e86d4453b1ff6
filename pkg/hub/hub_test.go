package hub

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err := h.Serve(w, r, id); err != nil {
			t.Errorf("Expected Serve to succeed, got %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user_id=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Expected to dial, got %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Expected the condition to hold within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubSendAndReply(t *testing.T) {
	echo := func(ctx context.Context, userID int64, msg []byte) []byte {
		return append([]byte("echo:"), msg...)
	}
	h := New(zap.NewNop(), echo, nil)
	defer h.Close()
	srv := newTestServer(t, h)

	conn := dial(t, srv, 7)
	waitFor(t, func() bool { return h.Count() == 1 })

	if err := h.Send(context.Background(), 7, []byte(`{"type":"prize"}`)); err != nil {
		t.Fatalf("Expected no error from Send, got %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Expected a pushed message, got %v", err)
	}
	if string(got) != `{"type":"prize"}` {
		t.Errorf("Expected the pushed prize, got %s", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hi")); err != nil {
		t.Fatalf("Expected no error writing, got %v", err)
	}
	_, got, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("Expected a reply, got %v", err)
	}
	if !bytes.Equal(got, []byte("echo:hi")) {
		t.Errorf("Expected echo:hi, got %s", got)
	}
}

func TestHubReplacesConnection(t *testing.T) {
	h := New(zap.NewNop(), nil, nil)
	defer h.Close()
	srv := newTestServer(t, h)

	first := dial(t, srv, 1)
	waitFor(t, func() bool { return h.Count() == 1 })
	dial(t, srv, 1)
	dial(t, srv, 2)
	waitFor(t, func() bool { return h.Count() == 2 })

	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := first.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected the replaced connection to get a normal close frame, got %v", err)
	}
	if got := h.Connected(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2] connected, got %v", got)
	}
}

func TestHubSendNotConnected(t *testing.T) {
	h := New(zap.NewNop(), nil, nil)
	if err := h.Send(context.Background(), 42, []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestHubDisconnect(t *testing.T) {
	h := New(zap.NewNop(), nil, nil)
	srv := newTestServer(t, h)

	conn := dial(t, srv, 3)
	waitFor(t, func() bool { return h.Count() == 1 })
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return h.Count() == 0 })
}

func TestHubCloseSendsCloseFrame(t *testing.T) {
	h := New(zap.NewNop(), nil, nil)
	srv := newTestServer(t, h)

	conn := dial(t, srv, 5)
	waitFor(t, func() bool { return h.Count() == 1 })
	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected a normal close frame, got %v", err)
	}
	if h.Count() != 0 {
		t.Errorf("Expected no connected clients, got %d", h.Count())
	}
}
