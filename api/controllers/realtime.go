package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// SocketHub is the part of the realtime hub the upgrade handler needs.
type SocketHub interface {
	Attach(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) *realtime.Client
}

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.TrimRight(origin, "/")]
			return ok
		},
	}
}

// RealtimeConnect upgrades an authenticated request and hands the socket to the hub.
func RealtimeConnect(hub SocketHub, origins []string, logg *logger.Logger) http.HandlerFunc {
	upgrader := newUpgrader(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the http error
			if logg != nil {
				logg.Warn(r.Context(), "websocket upgrade failed: "+err.Error())
			}
			return
		}
		hub.Attach(context.WithoutCancel(r.Context()), conn, userID)
	}
}
