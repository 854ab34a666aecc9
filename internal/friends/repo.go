package friends

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
)

// Repository persists directional friend rows. (a→b accepted) plus
// (b→a accepted) is a mutual friendship.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns gorm.ErrRecordNotFound when no row exists for the direction.
func (r *Repository) Find(ctx context.Context, userID, friendID uuid.UUID) (*models.Friend, error) {
	var row models.Friend
	err := r.db.WithContext(ctx).
		Where("user_uuid = ? AND friend_uuid = ?", userID, friendID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindPending(ctx context.Context, requesterID, receiverID uuid.UUID) (*models.Friend, error) {
	var row models.Friend
	err := r.db.WithContext(ctx).
		Where("user_uuid = ? AND friend_uuid = ? AND status = ?", requesterID, receiverID, enums.FriendStatusPending).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CreatePending(ctx context.Context, requesterID, targetID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.Friend{
		UserUUID:   requesterID,
		FriendUUID: targetID,
		Status:     enums.FriendStatusPending,
	}).Error
}

// MarkAccepted flips a pending row. Zero rows affected means another
// transaction already consumed it.
func (r *Repository) MarkAccepted(ctx context.Context, requesterID, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("user_uuid = ? AND friend_uuid = ? AND status = ?", requesterID, receiverID, enums.FriendStatusPending).
		Updates(map[string]any{"status": enums.FriendStatusAccepted, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpsertAccepted inserts an accepted row or promotes the existing one.
func (r *Repository) UpsertAccepted(ctx context.Context, userID, friendID uuid.UUID) error {
	row := &models.Friend{UserUUID: userID, FriendUUID: friendID, Status: enums.FriendStatusAccepted}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uuid"}, {Name: "friend_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(row).Error
}

func (r *Repository) DeletePending(ctx context.Context, requesterID, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_uuid = ? AND friend_uuid = ? AND status = ?", requesterID, receiverID, enums.FriendStatusPending).
		Delete(&models.Friend{})
	return res.RowsAffected, res.Error
}

// DeletePair removes both directions regardless of status.
func (r *Repository) DeletePair(ctx context.Context, a, b uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(user_uuid = ? AND friend_uuid = ?) OR (user_uuid = ? AND friend_uuid = ?)", a, b, b, a).
		Delete(&models.Friend{})
	return res.RowsAffected, res.Error
}

func (r *Repository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("user_uuid = ? AND friend_uuid = ? AND status = ?", a, b, enums.FriendStatusAccepted).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error) {
	var out []FriendDTO
	err := r.db.WithContext(ctx).
		Table("friends f").
		Select("u.uuid, u.email, COALESCE(p.name, '') AS name, p.profile_picture, f.updated_at AS since").
		Joins("JOIN users u ON u.uuid = f.friend_uuid").
		Joins("LEFT JOIN user_profiles p ON p.uuid = u.uuid").
		Where("f.user_uuid = ? AND f.status = ?", userID, enums.FriendStatusAccepted).
		Order("name ASC").
		Scan(&out).Error
	return out, err
}

// ListIncomingPending returns the users who asked userID to be friends.
func (r *Repository) ListIncomingPending(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error) {
	var out []FriendDTO
	err := r.db.WithContext(ctx).
		Table("friends f").
		Select("u.uuid, u.email, COALESCE(p.name, '') AS name, p.profile_picture, f.created_at AS since").
		Joins("JOIN users u ON u.uuid = f.user_uuid").
		Joins("LEFT JOIN user_profiles p ON p.uuid = u.uuid").
		Where("f.friend_uuid = ? AND f.status = ?", userID, enums.FriendStatusPending).
		Order("f.created_at DESC").
		Scan(&out).Error
	return out, err
}
