package controllers

import (
	"net/http"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/internal/friends"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

func FriendsList(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListFriends(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func FriendsPendingRequests(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListPendingRequests(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func FriendsSendRequest(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		targetID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.SendRequest(r.Context(), userID, targetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, successResponse{Success: true})
	}
}

// FriendsAccept accepts the pending request sent by :uuid to the caller.
// A missing request answers 404 with success=false.
func FriendsAccept(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		requesterID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		accepted, err := svc.AcceptRequest(r.Context(), userID, requesterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !accepted {
			responses.WriteSuccessStatus(w, http.StatusNotFound, successResponse{Success: false, Message: "no pending friend request"})
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

func FriendsReject(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		requesterID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.RejectRequest(r.Context(), userID, requesterID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

func FriendsRemove(svc friends.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		friendID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.RemoveFriend(r.Context(), userID, friendID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}
