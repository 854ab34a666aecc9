package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/enums"
)

type Schedule struct {
	UUID        uuid.UUID          `gorm:"column:uuid;type:uuid;primaryKey"`
	Title       string             `gorm:"column:title;type:text;not null"`
	Description string             `gorm:"column:description;type:text;not null;default:''"`
	Location    string             `gorm:"column:location;type:text;not null;default:''"`
	StartTime   time.Time          `gorm:"column:start_time;not null"`
	EndTime     time.Time          `gorm:"column:end_time;not null"`
	Type        enums.ScheduleType `gorm:"column:type;type:text;not null"`
	OwnerUUID   uuid.UUID          `gorm:"column:owner_uuid;type:uuid;not null"`
	GroupUUID   *uuid.UUID         `gorm:"column:group_uuid;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

type ScheduleMember struct {
	ScheduleUUID uuid.UUID `gorm:"column:schedule_uuid;type:uuid;primaryKey"`
	UserUUID     uuid.UUID `gorm:"column:user_uuid;type:uuid;primaryKey"`
	JoinedAt     time.Time `gorm:"column:joined_at;autoCreateTime"`
}
