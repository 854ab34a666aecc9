package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

var (
	errInvalidRoom = errors.New("room must be a uuid")
	errRoomDenied  = errors.New("not a member of this room")
)

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
}

func newClient(h *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
		userID: userID,
	}
}

func (c *Client) UserID() uuid.UUID { return c.userID }

func (c *Client) pongWait() time.Duration {
	if c.hub.cfg.PongWait > 0 {
		return c.hub.cfg.PongWait
	}
	return 60 * time.Second
}

func (c *Client) writeWait() time.Duration {
	if c.hub.cfg.WriteWait > 0 {
		return c.hub.cfg.WriteWait
	}
	return 10 * time.Second
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	pongWait := c.pongWait()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.hub.logg != nil {
				c.hub.logg.Warn(c.hub.logg.WithUserID(ctx, c.userID.String()), "websocket closed unexpectedly")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.handle(ctx, message)
	}
}

func (c *Client) handle(ctx context.Context, message []byte) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.reply(eventError, map[string]string{"message": "malformed frame"})
		return
	}
	var room string
	if frame.Event == eventJoinRoom || frame.Event == eventLeaveRoom {
		if err := json.Unmarshal(frame.Data, &room); err != nil {
			c.reply(eventError, map[string]string{"message": "room must be a string"})
			return
		}
	}

	switch frame.Event {
	case eventJoinRoom:
		if err := c.hub.Join(ctx, c, room); err != nil {
			if !errors.Is(err, errInvalidRoom) && !errors.Is(err, errRoomDenied) {
				if c.hub.logg != nil {
					c.hub.logg.Error(c.hub.logg.WithRoomID(ctx, room), "authorize room join", err)
				}
				err = errors.New("could not join room")
			}
			c.reply(eventError, map[string]string{"message": err.Error(), "room": room})
		}
	case eventLeaveRoom:
		c.hub.Leave(c, room)
	default:
		c.reply(eventError, map[string]string{"message": "unknown event " + frame.Event})
	}
}

// reply queues a frame for this socket only.
func (c *Client) reply(event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (c *Client) writePump() {
	pingPeriod := (c.pongWait() * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	writeWait := c.writeWait()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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
