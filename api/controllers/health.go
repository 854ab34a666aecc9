package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/pkg/config"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// Pinger is satisfied by the db, redis and storage clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TripGather-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency; nil pingers are skipped.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TripGather-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
