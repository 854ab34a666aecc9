package groups

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/media"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/internal/users"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

const (
	maxGroupNameLength = 100
	publicListLimit    = 50
)

type Service interface {
	CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupInfo, error)
	UpdateGroupImages(ctx context.Context, groupID uuid.UUID, iconURL, pictureURL *string) error
	UploadGroupImages(ctx context.Context, actorID, groupID uuid.UUID, icon, picture []byte) (*GroupInfo, error)
	GetGroup(ctx context.Context, groupID, viewerID uuid.UUID) (*GroupInfo, error)
	ListUserGroups(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error)
	ListPublicGroups(ctx context.Context, search string) ([]GroupSummary, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	JoinPublicGroup(ctx context.Context, groupID, userID uuid.UUID) error
	LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error
	InviteMember(ctx context.Context, groupID, inviterID, inviteeID uuid.UUID) (*InviteDTO, error)
	RespondInvite(ctx context.Context, inviteID, inviteeID uuid.UUID, accept bool) error
	ListInvites(ctx context.Context, userID uuid.UUID) ([]InviteDTO, error)
	ExpireStaleInvites(ctx context.Context, cutoff time.Time) (int64, error)
	CreateAnnouncement(ctx context.Context, groupID, authorID uuid.UUID, title, content string) (*AnnouncementDTO, error)
	ListAnnouncements(ctx context.Context, groupID, viewerID uuid.UUID) ([]AnnouncementDTO, error)
}

type roomCreator interface {
	CreateGroupRoomWithLeader(ctx context.Context, groupID, leaderID uuid.UUID) (uuid.UUID, error)
}

type ServiceParams struct {
	DB        *db.Client
	Rooms     roomCreator
	Media     media.Service
	Publisher realtime.Publisher
	Logger    *logger.Logger
	// MaxImageBytes bounds uploads checked before the group is created.
	MaxImageBytes int64
}

type service struct {
	db            *db.Client
	rooms         roomCreator
	media         media.Service
	publisher     realtime.Publisher
	logg          *logger.Logger
	maxImageBytes int64
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Rooms == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "room creator required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &service{
		db:            params.DB,
		rooms:         params.Rooms,
		media:         params.Media,
		publisher:     publisher,
		logg:          params.Logger,
		maxImageBytes: params.MaxImageBytes,
	}, nil
}

func (s *service) CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupInfo, error) {
	input.normalize()
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	group := &models.Group{
		UUID:            uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		GroupIcon:       input.IconURL,
		GroupPicture:    input.PictureURL,
		Visibility:      input.Visibility,
		GroupLeaderUUID: input.LeaderUUID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.CreateGroup(ctx, group); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create group")
		}
		if err := repo.AddMember(ctx, group.UUID, input.LeaderUUID, enums.GroupRoleLeader); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add group leader")
		}
		if _, err := repo.FindGroup(ctx, group.UUID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify group")
		}
		if err := repo.CreateSurvey(ctx, input.Survey.toModel(group.UUID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create group survey")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.withGroup(ctx, group.UUID)
	if _, err := s.rooms.CreateGroupRoomWithLeader(ctx, group.UUID, input.LeaderUUID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "create group chat room", err)
	}

	if len(input.Icon) > 0 || len(input.Picture) > 0 {
		if err := s.storeImages(ctx, group.UUID, input.Icon, input.Picture); err != nil && s.logg != nil {
			s.logg.Error(ctx, "store group images", err)
		}
	}

	return s.loadGroupInfo(ctx, group.UUID)
}

func (s *service) validateCreate(input CreateGroupInput) error {
	if input.LeaderUUID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "leader is required")
	}
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "group name is required")
	}
	if len([]rune(input.Name)) > maxGroupNameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "group name is too long")
	}
	if !input.Visibility.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility")
	}
	for _, image := range [][]byte{input.Icon, input.Picture} {
		if len(image) == 0 {
			continue
		}
		if s.media == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "image uploads are disabled")
		}
		if _, _, err := media.DetectImage(image, s.maxImageBytes); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) UpdateGroupImages(ctx context.Context, groupID uuid.UUID, iconURL, pictureURL *string) error {
	if iconURL == nil && pictureURL == nil {
		return nil
	}
	affected, err := NewRepository(s.db.DB()).UpdateImages(ctx, groupID, iconURL, pictureURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update group images")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}
	return nil
}

func (s *service) UploadGroupImages(ctx context.Context, actorID, groupID uuid.UUID, icon, picture []byte) (*GroupInfo, error) {
	if len(icon) == 0 && len(picture) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no images provided")
	}
	if s.media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image uploads are disabled")
	}
	if err := s.requireLeader(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	if err := s.storeImages(ctx, groupID, icon, picture); err != nil {
		return nil, err
	}
	return s.loadGroupInfo(ctx, groupID)
}

func (s *service) storeImages(ctx context.Context, groupID uuid.UUID, icon, picture []byte) error {
	if s.media == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "image uploads are disabled")
	}
	var iconURL, pictureURL *string
	if len(icon) > 0 {
		url, err := s.media.UploadGroupImage(ctx, groupID, media.ImageKindIcon, icon)
		if err != nil {
			return err
		}
		iconURL = &url
	}
	if len(picture) > 0 {
		url, err := s.media.UploadGroupImage(ctx, groupID, media.ImageKindPicture, picture)
		if err != nil {
			return err
		}
		pictureURL = &url
	}
	return s.UpdateGroupImages(ctx, groupID, iconURL, pictureURL)
}

func (s *service) loadGroupInfo(ctx context.Context, groupID uuid.UUID) (*GroupInfo, error) {
	conn := s.db.DB()
	repo := NewRepository(conn)
	group, err := repo.FindGroup(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group")
	}
	survey, err := repo.FindSurvey(ctx, groupID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group survey")
	}
	info := groupInfoFromModels(group, survey)
	if info.MemberCount, err = repo.CountMembers(ctx, groupID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count group members")
	}
	room, err := chats.NewRepository(conn).FindGroupRoom(ctx, groupID)
	switch {
	case err == nil:
		info.ChatRoomUUID = &room.UUID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group chat room")
	}
	return info, nil
}

// GetGroup hides private groups from non-members.
func (s *service) GetGroup(ctx context.Context, groupID, viewerID uuid.UUID) (*GroupInfo, error) {
	info, err := s.loadGroupInfo(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if info.Visibility == enums.GroupVisibilityPrivate {
		ok, err := s.IsMember(ctx, groupID, viewerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
	}
	return info, nil
}

func (s *service) ListUserGroups(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error) {
	out, err := NewRepository(s.db.DB()).ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list groups")
	}
	return out, nil
}

func (s *service) ListPublicGroups(ctx context.Context, search string) ([]GroupSummary, error) {
	out, err := NewRepository(s.db.DB()).ListPublic(ctx, search, publicListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list public groups")
	}
	return out, nil
}

func (s *service) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	ok, err := NewRepository(s.db.DB()).IsMember(ctx, groupID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
	}
	return ok, nil
}

func (s *service) JoinPublicGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		group, err := s.findGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group.Visibility != enums.GroupVisibilityPublic {
			return pkgerrors.New(pkgerrors.CodeForbidden, "group is private")
		}
		return addMember(ctx, tx, group, userID)
	})
}

func addMember(ctx context.Context, tx *gorm.DB, group *models.Group, userID uuid.UUID) error {
	repo := NewRepository(tx)
	ok, err := repo.IsMember(ctx, group.UUID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
	}
	if ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "already a member of this group")
	}
	if err := repo.AddMember(ctx, group.UUID, userID, enums.GroupRoleMember); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add group member")
	}
	roomID, err := ensureGroupRoom(ctx, tx, group)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group chat room")
	}
	if err := chats.NewRepository(tx).AddMemberIfAbsent(ctx, roomID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add chat room member")
	}
	return nil
}

// ensureGroupRoom returns the group's chat room, creating it with the leader
// when the post-commit creation in CreateGroup did not happen.
func ensureGroupRoom(ctx context.Context, tx *gorm.DB, group *models.Group) (uuid.UUID, error) {
	repo := chats.NewRepository(tx)
	room, err := repo.FindGroupRoom(ctx, group.UUID)
	if err == nil {
		return room.UUID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	groupID := group.UUID
	created := &models.ChatRoom{UUID: uuid.New(), Type: enums.ChatRoomTypeGroup, GroupUUID: &groupID}
	if err := repo.CreateRoom(ctx, created); err != nil {
		return uuid.Nil, err
	}
	if err := repo.AddMember(ctx, created.UUID, group.GroupLeaderUUID); err != nil {
		return uuid.Nil, err
	}
	return created.UUID, nil
}

func (s *service) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		member, err := repo.FindMember(ctx, groupID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "not a member of this group")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup group member")
		}
		if member.Role == enums.GroupRoleLeader {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "the group leader cannot leave the group")
		}
		if _, err := repo.RemoveMember(ctx, groupID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove group member")
		}
		chatRepo := chats.NewRepository(tx)
		room, err := chatRepo.FindGroupRoom(ctx, groupID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group chat room")
		}
		if _, err := chatRepo.RemoveMember(ctx, room.UUID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove chat room member")
		}
		return nil
	})
	if err != nil {
		return err
	}

	payload := memberLeftPayload{GroupUUID: groupID, UserUUID: userID}
	if err := s.publisher.Publish(ctx, groupID.String(), realtime.EventGroupMemberLeft, payload); err != nil && s.logg != nil {
		s.logg.Warn(s.withGroup(ctx, groupID), "emit groupMemberLeft failed: "+err.Error())
	}
	return nil
}

func (s *service) InviteMember(ctx context.Context, groupID, inviterID, inviteeID uuid.UUID) (*InviteDTO, error) {
	if inviterID == inviteeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot invite yourself")
	}
	invite := &models.GroupInvite{
		UUID:        uuid.New(),
		GroupUUID:   groupID,
		InviterUUID: inviterID,
		InviteeUUID: inviteeID,
		Status:      enums.InviteStatusPending,
	}
	var groupName string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		group, err := s.findGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		groupName = group.Name
		ok, err := repo.IsMember(ctx, groupID, inviterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only members can invite")
		}
		exists, err := users.NewRepository(tx).Exists(ctx, inviteeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		if ok, err = repo.IsMember(ctx, groupID, inviteeID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
		} else if ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "user is already a member")
		}
		if err := repo.CreateInvite(ctx, invite); err != nil {
			if db.IsUniqueViolation(err, "group_invites") {
				return pkgerrors.New(pkgerrors.CodeConflict, "invite already pending")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invite")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &InviteDTO{
		UUID:        invite.UUID,
		GroupUUID:   groupID,
		GroupName:   groupName,
		InviterUUID: inviterID,
		InviteeUUID: inviteeID,
		Status:      invite.Status,
		CreatedAt:   invite.CreatedAt,
	}, nil
}

func (s *service) RespondInvite(ctx context.Context, inviteID, inviteeID uuid.UUID, accept bool) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		invite, err := repo.FindInvite(ctx, inviteID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && invite.InviteeUUID != inviteeID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invite")
		}

		status := enums.InviteStatusDeclined
		if accept {
			status = enums.InviteStatusAccepted
		}
		affected, err := repo.ResolveInvite(ctx, inviteID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve invite")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invite already answered")
		}
		if !accept {
			return nil
		}
		// joined through another path while the invite was pending
		member, err := repo.IsMember(ctx, invite.GroupUUID, inviteeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check group membership")
		}
		if member {
			return nil
		}
		group, err := s.findGroup(ctx, tx, invite.GroupUUID)
		if err != nil {
			return err
		}
		return addMember(ctx, tx, group, inviteeID)
	})
}

func (s *service) ListInvites(ctx context.Context, userID uuid.UUID) ([]InviteDTO, error) {
	out, err := NewRepository(s.db.DB()).ListPendingInvites(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invites")
	}
	return out, nil
}

func (s *service) ExpireStaleInvites(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := NewRepository(s.db.DB()).ExpireInvitesBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire invites")
	}
	return n, nil
}

func (s *service) CreateAnnouncement(ctx context.Context, groupID, authorID uuid.UUID, title, content string) (*AnnouncementDTO, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and content are required")
	}
	if err := s.requireLeader(ctx, groupID, authorID); err != nil {
		return nil, err
	}
	a := &models.Announcement{
		UUID:       uuid.New(),
		GroupUUID:  groupID,
		AuthorUUID: authorID,
		Title:      title,
		Content:    content,
	}
	if err := NewRepository(s.db.DB()).CreateAnnouncement(ctx, a); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create announcement")
	}
	dto := announcementFromModel(*a)
	return &dto, nil
}

func (s *service) ListAnnouncements(ctx context.Context, groupID, viewerID uuid.UUID) ([]AnnouncementDTO, error) {
	ok, err := s.IsMember(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	rows, err := NewRepository(s.db.DB()).ListAnnouncements(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list announcements")
	}
	out := make([]AnnouncementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, announcementFromModel(row))
	}
	return out, nil
}

func announcementFromModel(a models.Announcement) AnnouncementDTO {
	return AnnouncementDTO{
		UUID:       a.UUID,
		GroupUUID:  a.GroupUUID,
		AuthorUUID: a.AuthorUUID,
		Title:      a.Title,
		Content:    a.Content,
		CreatedAt:  a.CreatedAt,
	}
}

func (s *service) requireLeader(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := NewRepository(s.db.DB()).FindMember(ctx, groupID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup group member")
	}
	if member.Role != enums.GroupRoleLeader {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the group leader can do this")
	}
	return nil
}

func (s *service) findGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) (*models.Group, error) {
	group, err := NewRepository(tx).FindGroup(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load group")
	}
	return group, nil
}

func (s *service) withGroup(ctx context.Context, groupID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithGroupID(ctx, groupID.String())
}
