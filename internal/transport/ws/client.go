package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/buzzer/internal/engine"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Dispatcher runs client actions
type Dispatcher interface {
	Submit(ctx context.Context, a engine.Action) error
	Disconnect(ctx context.Context, id model.ConnectionID) error
}

// Client is one websocket connection
type Client struct {
	hub         *Hub
	id          model.ConnectionID
	conn        *websocket.Conn
	send        chan []byte
	groups      map[model.RoomCode]struct{} // guarded by hub.mu
	connectedAt time.Time
	logger      *slog.Logger
}

func newClient(hub *Hub, id model.ConnectionID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:         hub,
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		groups:      make(map[model.RoomCode]struct{}),
		connectedAt: time.Now(),
		logger:      logger.With(slog.String("conn", string(id))),
	}
}

// readPump decodes frames from the peer and submits them one at a time, so a
// client's own actions are applied in the order it sent them.
func (c *Client) readPump(ctx context.Context, dispatcher Dispatcher) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("ws read failed", slog.Any("error", err))
			}
			return
		}

		req, err := protocol.DecodeRequest(data)
		if err != nil {
			frame, encErr := protocol.EncodeError(err)
			if encErr == nil {
				c.hub.SendTo(c.id, frame)
			}
			continue
		}

		err = dispatcher.Submit(ctx, engine.Action{
			Kind: engine.Kind(req.Type),
			Conn: c.id,
			Room: req.Room,
			Name: req.Name,
			Role: req.Role,
		})
		if errors.Is(err, engine.ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
	}
}

// writePump is the only writer to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
