package controllers

import (
	"net/http"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/api/validators"
	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type dmRequest struct {
	FriendUUID string `json:"friendUuid" validate:"required,uuid"`
}

type dmResponse struct {
	Success  bool   `json:"success"`
	RoomUUID string `json:"roomUuid"`
}

// ChatsGetOrCreateDM returns the caller's DM room with friendUuid, creating it on first use.
func ChatsGetOrCreateDM(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		var body dmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		friendID, err := parseUUIDField("friendUuid", body.FriendUUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roomID, err := svc.GetOrCreateDMRoom(r.Context(), userID, friendID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dmResponse{Success: true, RoomUUID: roomID.String()})
	}
}

func ChatsListRooms(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListRooms(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ChatsListMessages(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		roomID, ok := pathUUID(w, r, logg, "roomUuid")
		if !ok {
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListMessages(r.Context(), roomID, userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

func ChatsSendMessage(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		roomID, ok := pathUUID(w, r, logg, "roomUuid")
		if !ok {
			return
		}
		var body sendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.SendMessage(r.Context(), roomID, userID, body.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}

// ChatsLeaveRoom lets a user leave a DM; the sweep job removes rooms left empty.
func ChatsLeaveRoom(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		roomID, ok := pathUUID(w, r, logg, "roomUuid")
		if !ok {
			return
		}
		if err := svc.LeaveRoom(r.Context(), roomID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}
