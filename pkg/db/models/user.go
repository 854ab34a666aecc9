package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

// User is the login identity. Every committed user has exactly one UserProfile.
type User struct {
	UUID      uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Password  string    `gorm:"column:password;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserProfile shares its primary key with users.uuid.
type UserProfile struct {
	UUID           uuid.UUID     `gorm:"column:uuid;type:uuid;primaryKey"`
	Name           string        `gorm:"column:name;type:text;not null;default:''"`
	Gender         *string       `gorm:"column:gender;type:text"`
	Birthdate      *dbtypes.Date `gorm:"column:birthdate;type:date"`
	ParadoxFlag    bool          `gorm:"column:paradox_flag;not null;default:false"`
	ProfilePicture *string       `gorm:"column:profile_picture;type:text"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
