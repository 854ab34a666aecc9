package schedules

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

func (r *Repository) Create(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *Repository) Find(ctx context.Context, scheduleID uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.WithContext(ctx).Take(&schedule, "uuid = ?", scheduleID).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// AddMember ignores an existing membership.
func (r *Repository) AddMember(ctx context.Context, scheduleID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ScheduleMember{ScheduleUUID: scheduleID, UserUUID: userID}).Error
}

func (r *Repository) RemoveMember(ctx context.Context, scheduleID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("schedule_uuid = ? AND user_uuid = ?", scheduleID, userID).
		Delete(&models.ScheduleMember{})
	return res.RowsAffected, res.Error
}

func (r *Repository) IsMember(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScheduleMember{}).
		Where("schedule_uuid = ? AND user_uuid = ?", scheduleID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Schedule, error) {
	var out []models.Schedule
	err := r.db.WithContext(ctx).
		Joins("JOIN schedule_members m ON m.schedule_uuid = schedules.uuid").
		Where("m.user_uuid = ?", userID).
		Order("schedules.start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.Schedule, error) {
	var out []models.Schedule
	err := r.db.WithContext(ctx).
		Where("group_uuid = ?", groupID).
		Order("start_time ASC").
		Find(&out).Error
	return out, err
}
