package hub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one websocket connection of a user
type Client struct {
	userID int64
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// UserID returns the id of the connected user
func (c *Client) UserID() int64 { return c.userID }

// Close shuts the connection down. Safe to call more than once. writePump
// sends the close frame and then closes the socket.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// enqueue queues msg without blocking
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// deliver queues msg, waiting for buffer space until ctx is done
func (c *Client) deliver(ctx context.Context, msg []byte) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	log := c.hub.log.With(zap.Int64("user_id", c.userID))
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("client disconnected")
			} else {
				log.Info("client read error", zap.Error(err))
			}
			return
		}
		if c.hub.handler == nil {
			continue
		}

		reply := c.handle(message)
		if reply != nil && !c.enqueue(reply) {
			log.Warn("dropping reply, send buffer full")
		}
	}
}

func (c *Client) handle(message []byte) (reply []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.hub.log.Error("recovered from panic in message handler", zap.Int64("user_id", c.userID), zap.Any("panic", r))
			reply = nil
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	return c.hub.handler(ctx, c.userID, message)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Info("client write error", zap.Int64("user_id", c.userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
