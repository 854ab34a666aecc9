package groups

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/media"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/dbtest"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type noFriends struct{}

func (noFriends) AreFriends(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

type stubMedia struct {
	uploads []media.ImageKind
}

func (s *stubMedia) UploadGroupImage(_ context.Context, groupID uuid.UUID, kind media.ImageKind, _ []byte) (string, error) {
	s.uploads = append(s.uploads, kind)
	return "https://cdn.example/" + groupID.String() + "/" + string(kind), nil
}

type fixture struct {
	svc    Service
	client *db.Client
	rec    *realtime.Recorder
	media  *stubMedia
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	rec := &realtime.Recorder{}
	rooms, err := chats.NewService(chats.ServiceParams{DB: client, Friends: noFriends{}})
	require.NoError(t, err)
	m := &stubMedia{}
	svc, err := NewService(ServiceParams{DB: client, Rooms: rooms, Media: m, Publisher: rec, MaxImageBytes: 1 << 20})
	require.NoError(t, err)
	return fixture{svc: svc, client: client, rec: rec, media: m}
}

func seedUser(t *testing.T, client *db.Client) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, client.DB().Create(&models.User{UUID: id, Email: id.String() + "@trip.io", Password: "x"}).Error)
	return id
}

func intPtr(v int) *int { return &v }

func (f fixture) createGroup(t *testing.T, leader uuid.UUID, visibility enums.GroupVisibility) *GroupInfo {
	t.Helper()
	info, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{
		Name:       "Kyoto crew",
		Visibility: visibility,
		LeaderUUID: leader,
	})
	require.NoError(t, err)
	return info
}

func TestCreateGroupPersistsGroupLeaderSurveyAndRoom(t *testing.T) {
	f := newFixture(t)
	leader := seedUser(t, f.client)

	info, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{
		Name:        "  Kyoto crew ",
		Description: "temples",
		LeaderUUID:  leader,
		Survey:      SurveyInput{ActivityType: intPtr(2), TripDuration: intPtr(5)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Kyoto crew", info.Name)
	assert.Equal(t, enums.GroupVisibilityPublic, info.Visibility)
	assert.Equal(t, leader, info.GroupLeaderUUID)
	assert.Equal(t, SurveyDTO{ActivityType: 2, BudgetType: 0, TripDuration: 5}, info.Survey)
	assert.EqualValues(t, 1, info.MemberCount)
	require.NotNil(t, info.ChatRoomUUID)

	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "group_members", "group_uuid = ? AND role = ?", info.UUID, "leader"))
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "chat_room_members", "room_uuid = ? AND user_uuid = ?", *info.ChatRoomUUID, leader))
}

func TestCreateGroupSurveyFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	leader := seedUser(t, f.client)
	dbtest.FailInserts(t, f.client, "group_surveys", "survey insert failed")

	_, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: "Doomed", LeaderUUID: leader})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_info", ""))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_members", ""))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "chat_rooms", ""))
}

func TestCreateGroupLeaderFailureRollsBackGroup(t *testing.T) {
	f := newFixture(t)
	dbtest.FailInserts(t, f.client, "group_members", "member insert failed")

	_, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: "Doomed", LeaderUUID: seedUser(t, f.client)})
	require.Error(t, err)
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_info", ""))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_surveys", ""))
}

func TestCreateGroupValidation(t *testing.T) {
	f := newFixture(t)
	leader := seedUser(t, f.client)

	_, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: " ", LeaderUUID: leader})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: "x", LeaderUUID: leader, Visibility: "secret"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: "x", LeaderUUID: leader, Icon: []byte("not an image")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_info", ""))
}

func TestCreateGroupUploadsImagesAfterCommit(t *testing.T) {
	f := newFixture(t)
	leader := seedUser(t, f.client)

	info, err := f.svc.CreateGroup(context.Background(), CreateGroupInput{Name: "Pics", LeaderUUID: leader, Icon: pngHeader})
	require.NoError(t, err)
	require.NotNil(t, info.GroupIcon)
	assert.Contains(t, *info.GroupIcon, "/icon")
	assert.Nil(t, info.GroupPicture)
	assert.Equal(t, []media.ImageKind{media.ImageKindIcon}, f.media.uploads)
}

func TestUploadGroupImagesLeaderOnly(t *testing.T) {
	f := newFixture(t)
	leader, member := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPublic)
	require.NoError(t, f.svc.JoinPublicGroup(context.Background(), group.UUID, member))

	_, err := f.svc.UploadGroupImages(context.Background(), member, group.UUID, nil, pngHeader)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	info, err := f.svc.UploadGroupImages(context.Background(), leader, group.UUID, nil, pngHeader)
	require.NoError(t, err)
	require.NotNil(t, info.GroupPicture)
}

func TestJoinAndLeavePublicGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, member := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPublic)

	require.NoError(t, f.svc.JoinPublicGroup(ctx, group.UUID, member))
	ok, err := f.svc.IsMember(ctx, group.UUID, member)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "chat_room_members", "room_uuid = ? AND user_uuid = ?", *group.ChatRoomUUID, member))

	err = f.svc.JoinPublicGroup(ctx, group.UUID, member)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	err = f.svc.LeaveGroup(ctx, group.UUID, leader)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, f.svc.LeaveGroup(ctx, group.UUID, member))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "chat_room_members", "user_uuid = ?", member))
	events := f.rec.Named(realtime.EventGroupMemberLeft)
	require.Len(t, events, 1)
	assert.Equal(t, group.UUID.String(), events[0].Room)
	assert.Equal(t, memberLeftPayload{GroupUUID: group.UUID, UserUUID: member}, events[0].Payload)

	err = f.svc.LeaveGroup(ctx, group.UUID, member)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPrivateGroupIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, outsider := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPrivate)

	_, err := f.svc.GetGroup(ctx, group.UUID, outsider)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.JoinPublicGroup(ctx, group.UUID, outsider)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	public, err := f.svc.ListPublicGroups(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, public)

	mine, err := f.svc.ListUserGroups(ctx, leader)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.EqualValues(t, 1, mine[0].MemberCount)
}

func TestInviteFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, invitee, stranger := seedUser(t, f.client), seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPrivate)

	_, err := f.svc.InviteMember(ctx, group.UUID, stranger, invitee)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	invite, err := f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	require.NoError(t, err)
	assert.Equal(t, "Kyoto crew", invite.GroupName)

	_, err = f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	pending, err := f.svc.ListInvites(ctx, invitee)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	err = f.svc.RespondInvite(ctx, invite.UUID, stranger, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.RespondInvite(ctx, invite.UUID, invitee, true))
	ok, err := f.svc.IsMember(ctx, group.UUID, invitee)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "chat_room_members", "room_uuid = ? AND user_uuid = ?", *group.ChatRoomUUID, invitee))

	err = f.svc.RespondInvite(ctx, invite.UUID, invitee, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestAcceptInviteAfterJoiningPublicGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, invitee := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPublic)

	invite, err := f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	require.NoError(t, err)
	require.NoError(t, f.svc.JoinPublicGroup(ctx, group.UUID, invitee))

	require.NoError(t, f.svc.RespondInvite(ctx, invite.UUID, invitee, true))

	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "group_invites", "uuid = ? AND status = ?", invite.UUID, "accepted"))
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "group_members", "group_uuid = ? AND user_uuid = ?", group.UUID, invitee))
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "chat_room_members", "room_uuid = ? AND user_uuid = ?", *group.ChatRoomUUID, invitee))

	pending, err := f.svc.ListInvites(ctx, invitee)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestExpireStaleInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, invitee := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPrivate)

	_, err := f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	require.NoError(t, err)

	n, err := f.svc.ExpireStaleInvites(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.ExpireStaleInvites(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	pending, err := f.svc.ListInvites(ctx, invitee)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInviteAcceptRollsBackWhenChatMemberInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, invitee := seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPrivate)
	invite, err := f.svc.InviteMember(ctx, group.UUID, leader, invitee)
	require.NoError(t, err)
	dbtest.FailInserts(t, f.client, "chat_room_members", "chat member insert failed")

	require.Error(t, f.svc.RespondInvite(ctx, invite.UUID, invitee, true))
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, "group_members", "user_uuid = ?", invitee))
	assert.EqualValues(t, 1, dbtest.Count(t, f.client, "group_invites", "status = ?", "pending"))
}

func TestAnnouncements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leader, member, outsider := seedUser(t, f.client), seedUser(t, f.client), seedUser(t, f.client)
	group := f.createGroup(t, leader, enums.GroupVisibilityPublic)
	require.NoError(t, f.svc.JoinPublicGroup(ctx, group.UUID, member))

	_, err := f.svc.CreateAnnouncement(ctx, group.UUID, member, "t", "c")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateAnnouncement(ctx, group.UUID, leader, "", "c")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := f.svc.CreateAnnouncement(ctx, group.UUID, leader, "Meetup", "Station at 9")
	require.NoError(t, err)

	list, err := f.svc.ListAnnouncements(ctx, group.UUID, member)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.UUID, list[0].UUID)

	_, err = f.svc.ListAnnouncements(ctx, group.UUID, outsider)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
