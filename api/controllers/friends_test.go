package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/internal/friends"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

type stubFriendService struct {
	friends.Service
	accepted  bool
	err       error
	receiver  uuid.UUID
	requester uuid.UUID
}

func (s *stubFriendService) AcceptRequest(_ context.Context, receiverID, requesterID uuid.UUID) (bool, error) {
	s.receiver, s.requester = receiverID, requesterID
	return s.accepted, s.err
}

func (s *stubFriendService) SendRequest(_ context.Context, requesterID, targetID uuid.UUID) error {
	s.requester, s.receiver = requesterID, targetID
	return s.err
}

func acceptRequest(user uuid.UUID, requester string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/friends/"+requester+"/accept", nil)
	return withURLParam(withUser(req, user), "uuid", requester)
}

func TestFriendsAccept(t *testing.T) {
	user, requester := uuid.New(), uuid.New()
	svc := &stubFriendService{accepted: true}

	rec := httptest.NewRecorder()
	FriendsAccept(svc, nil).ServeHTTP(rec, acceptRequest(user, requester.String()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user, svc.receiver)
	assert.Equal(t, requester, svc.requester)

	var out successResponse
	decodeData(t, rec, &out)
	assert.True(t, out.Success)
}

func TestFriendsAcceptWithoutPendingRequest(t *testing.T) {
	svc := &stubFriendService{accepted: false}

	rec := httptest.NewRecorder()
	FriendsAccept(svc, nil).ServeHTTP(rec, acceptRequest(uuid.New(), uuid.New().String()))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var out successResponse
	decodeData(t, rec, &out)
	assert.False(t, out.Success)
	assert.Equal(t, "no pending friend request", out.Message)
}

func TestFriendsAcceptBadPathAndServiceError(t *testing.T) {
	svc := &stubFriendService{}
	rec := httptest.NewRecorder()
	FriendsAccept(svc, nil).ServeHTTP(rec, acceptRequest(uuid.New(), "not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.requester)

	svc = &stubFriendService{err: pkgerrors.New(pkgerrors.CodeInternal, "boom")}
	rec = httptest.NewRecorder()
	FriendsAccept(svc, nil).ServeHTTP(rec, acceptRequest(uuid.New(), uuid.New().String()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), errorCode(t, rec))
}

func TestFriendsSendRequest(t *testing.T) {
	user, target := uuid.New(), uuid.New()
	svc := &stubFriendService{}

	req := httptest.NewRequest(http.MethodPost, "/api/friends/"+target.String()+"/request", nil)
	rec := httptest.NewRecorder()
	FriendsSendRequest(svc, nil).ServeHTTP(rec, withURLParam(withUser(req, user), "uuid", target.String()))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, user, svc.requester)
	assert.Equal(t, target, svc.receiver)
}

func TestFriendsSendRequestConflict(t *testing.T) {
	svc := &stubFriendService{err: pkgerrors.New(pkgerrors.CodeConflict, "already friends")}
	target := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/api/friends/"+target+"/request", nil)
	rec := httptest.NewRecorder()
	FriendsSendRequest(svc, nil).ServeHTTP(rec, withURLParam(withUser(req, uuid.New()), "uuid", target))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec))
}
