package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/enums"
)

// Friend is one direction of a relationship. A mutual friendship is two accepted rows.
type Friend struct {
	UserUUID   uuid.UUID          `gorm:"column:user_uuid;type:uuid;primaryKey"`
	FriendUUID uuid.UUID          `gorm:"column:friend_uuid;type:uuid;primaryKey"`
	Status     enums.FriendStatus `gorm:"column:status;type:text;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
