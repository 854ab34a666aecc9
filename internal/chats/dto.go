package chats

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
)

// MessageDTO doubles as the receiveMessage event payload.
type MessageDTO struct {
	UUID       uuid.UUID `json:"uuid"`
	RoomUUID   uuid.UUID `json:"room_uuid"`
	SenderUUID uuid.UUID `json:"sender_uuid"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

func messageFromModel(m models.ChatMessage) MessageDTO {
	return MessageDTO{
		UUID:       m.UUID,
		RoomUUID:   m.RoomUUID,
		SenderUUID: m.SenderUUID,
		Message:    m.Message,
		SentAt:     m.SentAt,
	}
}

type MessagePage struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type RoomDTO struct {
	UUID         uuid.UUID          `json:"uuid" gorm:"column:uuid"`
	Type         enums.ChatRoomType `json:"type" gorm:"column:type"`
	GroupUUID    *uuid.UUID         `json:"group_uuid,omitempty" gorm:"column:group_uuid"`
	ScheduleUUID *uuid.UUID         `json:"schedule_uuid,omitempty" gorm:"column:schedule_uuid"`
	MemberCount  int64              `json:"member_count" gorm:"column:member_count"`
	CreatedAt    time.Time          `json:"created_at" gorm:"column:created_at"`
}
