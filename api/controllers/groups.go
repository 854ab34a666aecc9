package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/api/validators"
	"github.com/tripgather/tripgather-backend/internal/groups"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

const (
	groupIconField    = "groupIcon"
	groupPictureField = "groupPicture"
	multipartOverhead = 1 << 20
)

// GroupsCreate accepts the multipart group form: name, description,
// visibility, survey (JSON) and optional groupIcon/groupPicture files.
func GroupsCreate(svc groups.Service, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 2*maxImageBytes+multipartOverhead)
		if err := r.ParseMultipartForm(2*maxImageBytes + multipartOverhead); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		visibility, err := enums.ParseGroupVisibility(r.FormValue("visibility"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility"))
			return
		}

		var survey groups.SurveyInput
		if raw := strings.TrimSpace(r.FormValue("survey")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &survey); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "survey must be a JSON object"))
				return
			}
		}

		icon, err := formFile(r, groupIconField, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		picture, err := formFile(r, groupPictureField, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		info, err := svc.CreateGroup(r.Context(), groups.CreateGroupInput{
			Name:        validators.SanitizeString(r.FormValue("name"), 100),
			Description: validators.SanitizeString(r.FormValue("description"), 2000),
			Visibility:  visibility,
			LeaderUUID:  userID,
			Icon:        icon,
			Picture:     picture,
			Survey:      survey,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, info)
	}
}

// GroupsUploadImages replaces the icon and/or picture of a group.
func GroupsUploadImages(svc groups.Service, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 2*maxImageBytes+multipartOverhead)
		if err := r.ParseMultipartForm(2*maxImageBytes + multipartOverhead); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		icon, err := formFile(r, groupIconField, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		picture, err := formFile(r, groupPictureField, maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		info, err := svc.UploadGroupImages(r.Context(), userID, groupID, icon, picture)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// formFile returns nil when the field is absent.
func formFile(r *http.Request, field string, maxBytes int64) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read "+field)
	}
	if int64(len(body)) > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is too large")
	}
	return body, nil
}

func GroupsGet(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		info, err := svc.GetGroup(r.Context(), groupID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

func GroupsListMine(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListUserGroups(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func GroupsListPublic(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := validators.SanitizeString(r.URL.Query().Get("search"), 100)
		out, err := svc.ListPublicGroups(r.Context(), search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func GroupsJoin(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.JoinPublicGroup(r.Context(), groupID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

func GroupsLeave(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		if err := svc.LeaveGroup(r.Context(), groupID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

type inviteRequest struct {
	UserUUID string `json:"user_uuid" validate:"required,uuid"`
}

func GroupsInvite(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		var body inviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invitee, err := parseUUIDField("user_uuid", body.UserUUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invite, err := svc.InviteMember(r.Context(), groupID, userID, invitee)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invite)
	}
}

func GroupsListInvites(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.ListInvites(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

type respondInviteRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

func GroupsRespondInvite(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		inviteID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		var body respondInviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RespondInvite(r.Context(), inviteID, userID, *body.Accept); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

type announcementRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

func GroupsCreateAnnouncement(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		var body announcementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.CreateAnnouncement(r.Context(), groupID, userID, body.Title, body.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func GroupsListAnnouncements(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r, logg)
		if !ok {
			return
		}
		groupID, ok := pathUUID(w, r, logg, "uuid")
		if !ok {
			return
		}
		out, err := svc.ListAnnouncements(r.Context(), groupID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
