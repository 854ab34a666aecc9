package controllers

import (
	"net/http"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/api/validators"
	"github.com/tripgather/tripgather-backend/internal/votes"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type createVoteResponse struct {
	Success bool               `json:"success"`
	Vote    *votes.CreatedVote `json:"vote"`
}

func VotesCreate(svc votes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		var body votes.CreateVoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createVoteResponse{Success: true, Vote: created})
	}
}

type participateRequest struct {
	Participate *bool `json:"participate" validate:"required"`
}

type participateResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ParticipantCount int64  `json:"participant_count"`
}

func VotesParticipate(svc votes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		voteID, ok := pathUUID(w, r, logg, "voteUuid")
		if !ok {
			return
		}
		var body participateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.Participate(r.Context(), voteID, userID, *body.Participate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg := "participation withdrawn"
		if *body.Participate {
			msg = "participation recorded"
		}
		responses.WriteSuccess(w, participateResponse{Success: true, Message: msg, ParticipantCount: count})
	}
}

func VotesGet(svc votes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		voteID, ok := pathUUID(w, r, logg, "voteUuid")
		if !ok {
			return
		}
		out, err := svc.GetVote(r.Context(), voteID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func VotesListGroup(svc votes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		out, err := svc.ListGroupVotes(r.Context(), groupID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
