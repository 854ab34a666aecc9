package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/internal/votes"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

type stubVoteService struct {
	votes.Service
	created     *votes.CreatedVote
	count       int64
	err         error
	req         votes.CreateVoteRequest
	participate *bool
}

func (s *stubVoteService) Create(_ context.Context, _ uuid.UUID, req votes.CreateVoteRequest) (*votes.CreatedVote, error) {
	s.req = req
	return s.created, s.err
}

func (s *stubVoteService) Participate(_ context.Context, _, _ uuid.UUID, participate bool) (int64, error) {
	s.participate = &participate
	return s.count, s.err
}

const validVoteBody = `{
	"group_uuid": "%s",
	"title": "Lisbon",
	"location": "Lisbon, PT",
	"startDate": "2026-11-01",
	"endDate": "2026-11-05",
	"headcount": 4,
	"voteDeadline": "2026-10-30T12:00:00Z"
}`

func TestVotesCreate(t *testing.T) {
	group := uuid.New()
	created := &votes.CreatedVote{UUID: uuid.New(), ScheduleUUID: uuid.New(), ChatRoomUUID: uuid.New()}
	svc := &stubVoteService{created: created}
	handler := VotesCreate(svc, nil)

	body := strings.Replace(validVoteBody, "%s", group.String(), 1)
	req := httptest.NewRequest(http.MethodPost, "/api/votes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(req, uuid.New()))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, group, svc.req.GroupUUID)
	require.NotNil(t, svc.req.StartDate)
	assert.Equal(t, "2026-11-01", svc.req.StartDate.String())

	var out createVoteResponse
	decodeData(t, rec, &out)
	assert.True(t, out.Success)
	require.NotNil(t, out.Vote)
	assert.Equal(t, created.ChatRoomUUID, out.Vote.ChatRoomUUID)
}

func TestVotesCreateMissingFields(t *testing.T) {
	svc := &stubVoteService{}
	handler := VotesCreate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/votes", strings.NewReader(`{"title":"Lisbon"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.req.GroupUUID)
}

func TestVotesParticipate(t *testing.T) {
	svc := &stubVoteService{count: 3}
	handler := VotesParticipate(svc, nil)
	vote := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/votes/x/participate", strings.NewReader(`{"participate":true}`))
	req = withURLParam(withUser(req, uuid.New()), "voteUuid", vote.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.participate)
	assert.True(t, *svc.participate)
	var out participateResponse
	decodeData(t, rec, &out)
	assert.True(t, out.Success)
	assert.Equal(t, int64(3), out.ParticipantCount)
	assert.NotEmpty(t, out.Message)
}

func TestVotesParticipateRequiresFlag(t *testing.T) {
	svc := &stubVoteService{}
	handler := VotesParticipate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/votes/x/participate", strings.NewReader(`{}`))
	req = withURLParam(withUser(req, uuid.New()), "voteUuid", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.participate)
}

func TestVotesParticipateClosed(t *testing.T) {
	svc := &stubVoteService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "vote closed")}
	handler := VotesParticipate(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/votes/x/participate", strings.NewReader(`{"participate":false}`))
	req = withURLParam(withUser(req, uuid.New()), "voteUuid", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), errorCode(t, rec))
}
