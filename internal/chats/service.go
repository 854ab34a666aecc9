package chats

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
	"github.com/tripgather/tripgather-backend/pkg/pagination"
)

const maxMessageLength = 2000

type Service interface {
	CreateDMRoomWithMembers(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error)
	GetOrCreateDMRoom(ctx context.Context, userID, friendID uuid.UUID) (uuid.UUID, error)
	CreateGroupRoomWithLeader(ctx context.Context, groupID, leaderID uuid.UUID) (uuid.UUID, error)
	SendMessage(ctx context.Context, roomID, senderID uuid.UUID, text string) (*MessageDTO, error)
	ListMessages(ctx context.Context, roomID, userID uuid.UUID, params pagination.Params) (*MessagePage, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]RoomDTO, error)
	LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error
	DeleteLonelyDMRooms(ctx context.Context) (int64, error)
	IsRoomMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

type friendChecker interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ServiceParams struct {
	DB        *db.Client
	Friends   friendChecker
	Publisher realtime.Publisher
	Logger    *logger.Logger
}

type service struct {
	db        *db.Client
	friends   friendChecker
	publisher realtime.Publisher
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Friends == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "friend checker required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &service{db: params.DB, friends: params.Friends, publisher: publisher, logg: params.Logger}, nil
}

func (s *service) CreateDMRoomWithMembers(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	if userA == userB {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "a dm needs two different users")
	}
	key := PairKey(userA, userB)
	room := &models.ChatRoom{UUID: uuid.New(), Type: enums.ChatRoomTypeDM, DMPairKey: &key}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.CreateRoom(ctx, room); err != nil {
			return err
		}
		if err := repo.AddMember(ctx, room.UUID, userA); err != nil {
			return err
		}
		return repo.AddMember(ctx, room.UUID, userB)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return room.UUID, nil
}

func (s *service) GetOrCreateDMRoom(ctx context.Context, userID, friendID uuid.UUID) (uuid.UUID, error) {
	if userID == friendID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot open a dm with yourself")
	}
	ok, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "only friends can start a dm")
	}

	repo := NewRepository(s.db.DB())
	key := PairKey(userID, friendID)
	existing, err := repo.FindDMRoom(ctx, key)
	switch {
	case err == nil:
		if err := repo.AddMemberIfAbsent(ctx, existing.UUID, userID); err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejoin dm room")
		}
		return existing.UUID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup dm room")
	}

	roomID, err := s.CreateDMRoomWithMembers(ctx, userID, friendID)
	if err == nil {
		return roomID, nil
	}
	if !db.IsUniqueViolation(err, "dm_pair_key") {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create dm room")
	}

	// a concurrent request created the room first
	winner, err := repo.FindDMRoom(ctx, key)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload dm room")
	}
	return winner.UUID, nil
}

func (s *service) CreateGroupRoomWithLeader(ctx context.Context, groupID, leaderID uuid.UUID) (uuid.UUID, error) {
	room := &models.ChatRoom{UUID: uuid.New(), Type: enums.ChatRoomTypeGroup, GroupUUID: &groupID}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.CreateRoom(ctx, room); err != nil {
			return err
		}
		return repo.AddMember(ctx, room.UUID, leaderID)
	})
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create group chat room")
	}
	return room.UUID, nil
}

func (s *service) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, text string) (*MessageDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is too long")
	}
	if err := s.requireMember(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		UUID:       uuid.New(),
		RoomUUID:   roomID,
		SenderUUID: senderID,
		Message:    text,
		SentAt:     now(),
	}
	if err := NewRepository(s.db.DB()).CreateMessage(ctx, &msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store message")
	}

	dto := messageFromModel(msg)
	if err := s.publisher.Publish(ctx, roomID.String(), realtime.EventReceiveMessage, dto); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithRoomID(ctx, roomID.String()), "emit receiveMessage failed: "+err.Error())
	}
	return &dto, nil
}

func (s *service) ListMessages(ctx context.Context, roomID, userID uuid.UUID, params pagination.Params) (*MessagePage, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := NewRepository(s.db.DB()).ListMessages(ctx, roomID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	page := &MessagePage{Messages: make([]MessageDTO, 0, len(rows))}
	for _, row := range rows {
		page.Messages = append(page.Messages, messageFromModel(row))
	}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func (s *service) ListRooms(ctx context.Context, userID uuid.UUID) ([]RoomDTO, error) {
	rooms, err := NewRepository(s.db.DB()).ListRooms(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list rooms")
	}
	return rooms, nil
}

// LeaveRoom only applies to dm rooms; group and schedule rooms follow their owner's membership.
func (s *service) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	repo := NewRepository(s.db.DB())
	room, err := repo.FindRoom(ctx, roomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "chat room not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup chat room")
	}
	if room.Type != enums.ChatRoomTypeDM {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only dm rooms can be left directly")
	}
	removed, err := repo.RemoveMember(ctx, roomID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "leave chat room")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "not a member of this room")
	}
	return nil
}

func (s *service) DeleteLonelyDMRooms(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		ids, err := repo.LonelyDMRoomIDs(ctx)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteRooms(ctx, ids)
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete lonely dm rooms")
	}
	return deleted, nil
}

func (s *service) IsRoomMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	ok, err := NewRepository(s.db.DB()).IsMember(ctx, roomID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check room membership")
	}
	return ok, nil
}

func (s *service) requireMember(ctx context.Context, roomID, userID uuid.UUID) error {
	ok, err := s.IsRoomMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this room")
	}
	return nil
}
