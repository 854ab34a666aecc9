package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/dbtest"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

type memberSet map[uuid.UUID]bool

func (m memberSet) IsMember(_ context.Context, _ uuid.UUID, userID uuid.UUID) (bool, error) {
	return m[userID], nil
}

var (
	start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	end   = start.Add(48 * time.Hour)
)

func newService(t *testing.T, members memberSet) (Service, *db.Client, *realtime.Recorder) {
	t.Helper()
	client := dbtest.Open(t)
	rec := &realtime.Recorder{}
	svc, err := NewService(ServiceParams{DB: client, Groups: members, Publisher: rec})
	require.NoError(t, err)
	return svc, client, rec
}

func TestCreatePersonalSchedule(t *testing.T) {
	owner := uuid.New()
	svc, client, rec := newService(t, memberSet{})

	dto, err := svc.CreateSchedule(context.Background(), owner, CreateScheduleInput{Title: " Dentist ", StartTime: start, EndTime: start})
	require.NoError(t, err)
	assert.Equal(t, "Dentist", dto.Title)
	assert.Equal(t, enums.ScheduleTypePersonal, dto.Type)
	assert.Nil(t, dto.GroupUUID)
	assert.EqualValues(t, 1, dbtest.Count(t, client, "schedule_members", "schedule_uuid = ? AND user_uuid = ?", dto.UUID, owner))
	assert.Empty(t, rec.Events)

	list, err := svc.ListUserSchedules(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCreateGroupScheduleEmitsEvent(t *testing.T) {
	owner := uuid.New()
	group := uuid.New()
	svc, _, rec := newService(t, memberSet{owner: true})

	dto, err := svc.CreateSchedule(context.Background(), owner, CreateScheduleInput{
		Title: "Osaka", Type: enums.ScheduleTypeGroup, GroupUUID: &group, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)

	events := rec.Named(realtime.EventScheduleCreated)
	require.Len(t, events, 1)
	assert.Equal(t, group.String(), events[0].Room)
	assert.Equal(t, createdPayload{ScheduleUUID: dto.UUID, GroupUUID: group, Title: "Osaka"}, events[0].Payload)

	list, err := svc.ListGroupSchedules(context.Background(), group, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.ListGroupSchedules(context.Background(), group, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestCreateScheduleValidation(t *testing.T) {
	owner := uuid.New()
	group := uuid.New()
	svc, client, _ := newService(t, memberSet{})
	ctx := context.Background()

	cases := []CreateScheduleInput{
		{Title: "", StartTime: start, EndTime: end},
		{Title: "x", StartTime: end, EndTime: start},
		{Title: "x", EndTime: end},
		{Title: "x", Type: "weekly", StartTime: start, EndTime: end},
		{Title: "x", Type: enums.ScheduleTypeGroup, StartTime: start, EndTime: end},
	}
	for _, input := range cases {
		_, err := svc.CreateSchedule(ctx, owner, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}

	_, err := svc.CreateSchedule(ctx, owner, CreateScheduleInput{Title: "x", Type: enums.ScheduleTypeGroup, GroupUUID: &group, StartTime: start, EndTime: end})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.EqualValues(t, 0, dbtest.Count(t, client, "schedules", ""))
}

func TestCreateScheduleMemberFailureRollsBack(t *testing.T) {
	svc, client, _ := newService(t, memberSet{})
	dbtest.FailInserts(t, client, "schedule_members", "member insert failed")

	_, err := svc.CreateSchedule(context.Background(), uuid.New(), CreateScheduleInput{Title: "x", StartTime: start, EndTime: end})
	require.Error(t, err)
	assert.EqualValues(t, 0, dbtest.Count(t, client, "schedules", ""))
}

func TestJoinAndLeaveGroupSchedule(t *testing.T) {
	owner, member, outsider := uuid.New(), uuid.New(), uuid.New()
	group := uuid.New()
	svc, client, _ := newService(t, memberSet{owner: true, member: true})
	ctx := context.Background()

	dto, err := svc.CreateSchedule(ctx, owner, CreateScheduleInput{
		Title: "Osaka", Type: enums.ScheduleTypeGroup, GroupUUID: &group, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	scheduleID := dto.UUID
	room := &models.ChatRoom{Type: enums.ChatRoomTypeSchedule, ScheduleUUID: &scheduleID}
	require.NoError(t, chats.NewRepository(client.DB()).CreateRoom(ctx, room))

	require.NoError(t, svc.JoinSchedule(ctx, dto.UUID, member))
	require.NoError(t, svc.JoinSchedule(ctx, dto.UUID, member))
	ok, err := svc.IsMember(ctx, dto.UUID, member)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, dbtest.Count(t, client, "chat_room_members", "room_uuid = ? AND user_uuid = ?", room.UUID, member))

	err = svc.JoinSchedule(ctx, dto.UUID, outsider)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = svc.LeaveSchedule(ctx, dto.UUID, owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, svc.LeaveSchedule(ctx, dto.UUID, member))
	assert.EqualValues(t, 0, dbtest.Count(t, client, "chat_room_members", "user_uuid = ?", member))
	err = svc.LeaveSchedule(ctx, dto.UUID, member)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.JoinSchedule(ctx, uuid.New(), member)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPersonalScheduleCannotBeJoined(t *testing.T) {
	owner := uuid.New()
	svc, _, _ := newService(t, memberSet{})
	dto, err := svc.CreateSchedule(context.Background(), owner, CreateScheduleInput{Title: "solo", StartTime: start, EndTime: end})
	require.NoError(t, err)

	err = svc.JoinSchedule(context.Background(), dto.UUID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
