package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one live-feed connection, optionally narrowed to a challenge.
// The feed is one-way: anything the peer sends is discarded.
type Client struct {
	hub         *Hub
	conn        *ws.Conn
	challengeID uuid.UUID
	send        chan []byte
}

// NewClient creates a Client. A zero challengeID subscribes to every challenge.
func NewClient(hub *Hub, conn *ws.Conn, challengeID uuid.UUID) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		challengeID: challengeID,
		send:        make(chan []byte, sendBufferSize),
	}
}

// Run streams events to the peer until it disconnects, ctx ends, or the
// hub drops the client.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// The stream is write-only. CloseRead handles control frames and cancels
	// ctx when the connection closes; a data message from the peer closes it
	// with StatusPolicyViolation.
	ctx = c.conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusGoingAway, "feed closed")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
