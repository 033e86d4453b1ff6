// Package hub keeps one websocket connection per user and pushes JSON
// messages to them.
package hub

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when delivering to a closed connection
	ErrClosed = errors.New("hub: connection closed")
	// ErrNotConnected is returned when a user has no open connection
	ErrNotConnected = errors.New("hub: user not connected")
)

// MessageHandler handles one inbound message of a user and returns the reply
// to send back, or nil for none.
type MessageHandler func(ctx context.Context, userID int64, message []byte) []byte

// Hub tracks the connected clients
type Hub struct {
	mu       sync.RWMutex
	clients  map[int64]*Client
	handler  MessageHandler
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a Hub. checkOrigin may be nil to accept every origin.
func New(log *zap.Logger, handler MessageHandler, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[int64]*Client),
		handler: handler,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request and registers the connection for userID. A
// previous connection of the same user is closed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		userID: userID,
		conn:   conn,
		hub:    h,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = c
	total := len(h.clients)
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	h.log.Info("client connected", zap.Int64("user_id", userID), zap.Int("total", total))
	return nil
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
	}
}

// Connected returns the ids of connected users in ascending order
func (h *Hub) Connected() []int64 {
	h.mu.RLock()
	ids := make([]int64, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of connected users
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues msg for userID, waiting for buffer space until ctx is done
func (h *Hub) Send(ctx context.Context, userID int64, msg []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return c.deliver(ctx, msg)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[int64]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
