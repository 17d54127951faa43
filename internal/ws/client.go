package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"example.com/consensus_chess/internal/events"
	"example.com/consensus_chess/internal/game"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 64
)

// Client is one websocket connection attached to a room. The player field is
// set once a join on this socket succeeds and is only touched by the reader.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan Msg
	player game.PlayerID
	log    *zap.Logger
}

func newClient(conn *websocket.Conn, log *zap.Logger) *Client {
	id := randID()
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan Msg, sendBuffer),
		log:  log.With(zap.String("client", id)),
	}
}

// reply queues a direct response. It blocks while the writer is behind
// rather than losing a reply.
func (c *Client) reply(ctx context.Context, msg Msg) {
	select {
	case c.send <- msg:
	case <-ctx.Done():
	}
}

// writePump merges room events and direct replies onto the socket and keeps
// the connection alive with pings. It returns when ctx ends or a write fails.
func (c *Client) writePump(ctx context.Context, sub *events.Subscription) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		var out any
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			out = e
		case msg := <-c.send:
			out = msg
		case <-ping.C:
			if err := c.ping(ctx); err != nil {
				c.log.Debug("ping failed", zap.Error(err))
				return
			}
			continue
		}
		if err := c.write(ctx, out); err != nil {
			c.log.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (c *Client) write(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.conn, v)
}

func (c *Client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Ping(ctx)
}

func randID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
