package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/enums"
)

// ChatRoom carries DMPairKey only for dm rooms and ScheduleUUID only for schedule rooms.
type ChatRoom struct {
	UUID         uuid.UUID          `gorm:"column:uuid;type:uuid;primaryKey"`
	Type         enums.ChatRoomType `gorm:"column:type;type:text;not null"`
	GroupUUID    *uuid.UUID         `gorm:"column:group_uuid;type:uuid"`
	ScheduleUUID *uuid.UUID         `gorm:"column:schedule_uuid;type:uuid"`
	DMPairKey    *string            `gorm:"column:dm_pair_key;type:text"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

type ChatRoomMember struct {
	RoomUUID uuid.UUID `gorm:"column:room_uuid;type:uuid;primaryKey"`
	UserUUID uuid.UUID `gorm:"column:user_uuid;type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime"`
}

// ChatMessage rows are insert-only.
type ChatMessage struct {
	UUID       uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	RoomUUID   uuid.UUID `gorm:"column:room_uuid;type:uuid;not null"`
	SenderUUID uuid.UUID `gorm:"column:sender_uuid;type:uuid;not null"`
	Message    string    `gorm:"column:message;type:text;not null"`
	SentAt     time.Time `gorm:"column:sent_at;not null"`
}
