package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/logger"
	"github.com/tripgather/tripgather-backend/pkg/metrics"
)

// RoomAuthorizer decides whether a user may join a room keyed by a group,
// chat room, schedule or user uuid.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, roomID uuid.UUID) (bool, error)
}

type HubParams struct {
	Config     config.RealtimeConfig
	Authorizer RoomAuthorizer
	Logger     *logger.Logger
	Metrics    *metrics.RealtimeMetrics
}

// Hub tracks which local sockets joined which rooms. Membership lives in
// memory only and is gone after a restart.
type Hub struct {
	cfg        config.RealtimeConfig
	authorizer RoomAuthorizer
	logg       *logger.Logger
	metrics    *metrics.RealtimeMetrics

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub(params HubParams) *Hub {
	cfg := params.Config
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	return &Hub{
		cfg:        cfg,
		authorizer: params.Authorizer,
		logg:       params.Logger,
		metrics:    params.Metrics,
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Attach registers a freshly upgraded connection for userID and starts its
// pumps. The call returns immediately.
func (h *Hub) Attach(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) *Client {
	c := newClient(h, conn, userID)
	h.register(c)
	// every socket listens on its owner's personal room
	h.join(c, userID.String())
	go c.writePump()
	go c.readPump(ctx)
	return c
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ConnectionOpened()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
	h.mu.Unlock()
	h.metrics.ConnectionClosed()
}

// Join authorizes and adds the client to room.
func (h *Hub) Join(ctx context.Context, c *Client, room string) error {
	roomID, err := uuid.Parse(room)
	if err != nil {
		return errInvalidRoom
	}
	if roomID != c.userID {
		if h.authorizer == nil {
			return errRoomDenied
		}
		ok, err := h.authorizer.CanJoin(ctx, c.userID, roomID)
		if err != nil {
			return err
		}
		if !ok {
			return errRoomDenied
		}
	}
	h.join(c, roomID.String())
	return nil
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave removes the client from room. Leaving a room never joined is a no-op.
func (h *Hub) Leave(c *Client, room string) {
	if id, err := uuid.Parse(room); err == nil {
		room = id.String()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Publish delivers the event to sockets on this instance.
func (h *Hub) Publish(_ context.Context, room, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	h.Deliver(room, event, frame)
	return nil
}

// Deliver pushes an encoded frame to every local member of room and returns
// how many sockets accepted it. Full send buffers drop the frame.
func (h *Hub) Deliver(room, event string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
			delivered++
		default:
			h.metrics.Dropped(event)
			if h.logg != nil {
				ctx := h.logg.WithFields(context.Background(), map[string]any{
					"room_id": room,
					"user_id": c.userID.String(),
					"event":   event,
				})
				h.logg.Warn(ctx, "realtime send buffer full, dropping frame")
			}
		}
	}
	h.metrics.Emitted(event, delivered)
	return delivered
}

// RoomSize reports the local member count of room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every socket.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.unregister(c)
	}
}
