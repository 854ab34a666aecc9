package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/api/validators"
	"github.com/tripgather/tripgather-backend/internal/schedules"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type createScheduleRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Location    string     `json:"location" validate:"max=200"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" validate:"required"`
	Type        string     `json:"type"`
	GroupUUID   *uuid.UUID `json:"group_uuid,omitempty"`
}

func SchedulesCreate(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		var body createScheduleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		typ, err := enums.ParseScheduleType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid schedule type"))
			return
		}
		out, err := svc.CreateSchedule(r.Context(), userID, schedules.CreateScheduleInput{
			Title:       body.Title,
			Description: body.Description,
			Location:    body.Location,
			StartTime:   body.StartTime,
			EndTime:     body.EndTime,
			Type:        typ,
			GroupUUID:   body.GroupUUID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func SchedulesListMine(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListUserSchedules(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SchedulesListGroup(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		out, err := svc.ListGroupSchedules(r.Context(), groupID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SchedulesJoin(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		scheduleID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.JoinSchedule(r.Context(), scheduleID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

func SchedulesLeave(svc schedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		scheduleID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.LeaveSchedule(r.Context(), scheduleID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}
