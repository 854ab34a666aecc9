package votes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, vote *models.TravelVote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *Repository) Find(ctx context.Context, voteID uuid.UUID) (*models.TravelVote, error) {
	var vote models.TravelVote
	if err := r.db.WithContext(ctx).Take(&vote, "uuid = ?", voteID).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

// Lock takes a row lock on the vote so concurrent joins see each other's
// participant rows before the headcount check.
func (r *Repository) Lock(ctx context.Context, voteID uuid.UUID) error {
	var vote models.TravelVote
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("uuid").
		Take(&vote, "uuid = ?", voteID).Error
}

func (r *Repository) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.TravelVote, error) {
	var out []models.TravelVote
	err := r.db.WithContext(ctx).
		Where("group_uuid = ?", groupID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// AddParticipant fails on a duplicate row; the creation workflow relies on that.
func (r *Repository) AddParticipant(ctx context.Context, voteID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.TravelVoteParticipant{VoteUUID: voteID, UserUUID: userID}).Error
}

func (r *Repository) AddParticipantIfAbsent(ctx context.Context, voteID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TravelVoteParticipant{VoteUUID: voteID, UserUUID: userID})
	return res.RowsAffected, res.Error
}

func (r *Repository) RemoveParticipant(ctx context.Context, voteID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("vote_uuid = ? AND user_uuid = ?", voteID, userID).
		Delete(&models.TravelVoteParticipant{})
	return res.RowsAffected, res.Error
}

func (r *Repository) CountParticipants(ctx context.Context, voteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TravelVoteParticipant{}).
		Where("vote_uuid = ?", voteID).
		Count(&count).Error
	return count, err
}

func (r *Repository) IsParticipant(ctx context.Context, voteID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TravelVoteParticipant{}).
		Where("vote_uuid = ? AND user_uuid = ?", voteID, userID).
		Count(&count).Error
	return count > 0, err
}
