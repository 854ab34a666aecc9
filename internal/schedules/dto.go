package schedules

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
)

type CreateScheduleInput struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Type        enums.ScheduleType
	GroupUUID   *uuid.UUID
}

type ScheduleDTO struct {
	UUID        uuid.UUID          `json:"uuid"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Location    string             `json:"location"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Type        enums.ScheduleType `json:"type"`
	OwnerUUID   uuid.UUID          `json:"owner_uuid"`
	GroupUUID   *uuid.UUID         `json:"group_uuid,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func FromModel(m models.Schedule) ScheduleDTO {
	return ScheduleDTO{
		UUID:        m.UUID,
		Title:       m.Title,
		Description: m.Description,
		Location:    m.Location,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Type:        m.Type,
		OwnerUUID:   m.OwnerUUID,
		GroupUUID:   m.GroupUUID,
		CreatedAt:   m.CreatedAt,
	}
}

type createdPayload struct {
	ScheduleUUID uuid.UUID `json:"scheduleUuid"`
	GroupUUID    uuid.UUID `json:"groupUuid"`
	Title        string    `json:"title"`
}
