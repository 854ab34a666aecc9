package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/api/middleware"
	"github.com/tripgather/tripgather-backend/api/responses"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// actorID returns the authenticated user or writes a 401.
func actorID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a chi URL parameter or writes a 400.
func pathUUID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).WithDetails(map[string]any{"field": name}))
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
