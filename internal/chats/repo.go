package chats

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	"github.com/tripgather/tripgather-backend/pkg/pagination"
)

// Repository persists rooms, memberships and messages. Construct it over a
// transaction to take part in a larger workflow.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PairKey is the order-independent identity of a DM between two users.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}

func (r *Repository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	if room.UUID == uuid.Nil {
		room.UUID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *Repository) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.ChatRoomMember{RoomUUID: roomID, UserUUID: userID}).Error
}

// AddMemberIfAbsent ignores an existing membership.
func (r *Repository) AddMemberIfAbsent(ctx context.Context, roomID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ChatRoomMember{RoomUUID: roomID, UserUUID: userID}).Error
}

func (r *Repository) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("room_uuid = ? AND user_uuid = ?", roomID, userID).
		Delete(&models.ChatRoomMember{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindRoom(ctx context.Context, roomID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).Take(&room, "uuid = ?", roomID).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) FindDMRoom(ctx context.Context, pairKey string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("type = ? AND dm_pair_key = ?", enums.ChatRoomTypeDM, pairKey).
		Take(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) FindGroupRoom(ctx context.Context, groupID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("type = ? AND group_uuid = ?", enums.ChatRoomTypeGroup, groupID).
		Order("created_at ASC").
		Take(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) FindScheduleRoom(ctx context.Context, scheduleID uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("type = ? AND schedule_uuid = ?", enums.ChatRoomTypeSchedule, scheduleID).
		Take(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatRoomMember{}).
		Where("room_uuid = ? AND user_uuid = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListMessages pages newest first. The returned cursor points at the last
// message of the page and is nil on the final page.
func (r *Repository) ListMessages(ctx context.Context, roomID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.ChatMessage, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("room_uuid = ?", roomID)
	if cursor != nil {
		query = query.Where("(sent_at, uuid) < (?, ?)", cursor.At, cursor.ID)
	}

	var rows []models.ChatMessage
	if err := query.Order("sent_at DESC, uuid DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	rows, more := pagination.Trim(rows, limit)
	if !more {
		return rows, nil, nil
	}
	last := rows[len(rows)-1]
	return rows, &pagination.Cursor{At: last.SentAt, ID: last.UUID}, nil
}

func (r *Repository) ListRooms(ctx context.Context, userID uuid.UUID) ([]RoomDTO, error) {
	var out []RoomDTO
	err := r.db.WithContext(ctx).
		Table("chat_rooms r").
		Select("r.uuid, r.type, r.group_uuid, r.schedule_uuid, r.created_at, " +
			"(SELECT COUNT(*) FROM chat_room_members c WHERE c.room_uuid = r.uuid) AS member_count").
		Joins("JOIN chat_room_members m ON m.room_uuid = r.uuid").
		Where("m.user_uuid = ?", userID).
		Order("r.created_at DESC").
		Scan(&out).Error
	return out, err
}

// LonelyDMRoomIDs lists dm rooms with at most one member left.
func (r *Repository) LonelyDMRoomIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("chat_rooms r").
		Select("r.uuid").
		Joins("LEFT JOIN chat_room_members m ON m.room_uuid = r.uuid").
		Where("r.type = ?", enums.ChatRoomTypeDM).
		Group("r.uuid").
		Having("COUNT(m.user_uuid) <= 1").
		Pluck("r.uuid", &ids).Error
	return ids, err
}

// DeleteRooms removes the rooms with their members and messages.
func (r *Repository) DeleteRooms(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("room_uuid IN ?", ids).Delete(&models.ChatMessage{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("room_uuid IN ?", ids).Delete(&models.ChatRoomMember{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("uuid IN ?", ids).Delete(&models.ChatRoom{})
	return res.RowsAffected, res.Error
}

// now truncates to the precision Postgres keeps so cursors round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
