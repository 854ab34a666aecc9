package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

type TravelVote struct {
	UUID         uuid.UUID    `gorm:"column:uuid;type:uuid;primaryKey"`
	GroupUUID    uuid.UUID    `gorm:"column:group_uuid;type:uuid;not null"`
	CreatorUUID  uuid.UUID    `gorm:"column:creator_uuid;type:uuid;not null"`
	Title        string       `gorm:"column:title;type:text;not null"`
	Location     string       `gorm:"column:location;type:text;not null"`
	StartDate    dbtypes.Date `gorm:"column:start_date;type:date;not null"`
	EndDate      dbtypes.Date `gorm:"column:end_date;type:date;not null"`
	Headcount    *int         `gorm:"column:headcount"`
	Description  string       `gorm:"column:description;type:text;not null;default:''"`
	VoteDeadline time.Time    `gorm:"column:vote_deadline;not null"`
	ScheduleUUID uuid.UUID    `gorm:"column:schedule_uuid;type:uuid;not null"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime"`
}

type TravelVoteParticipant struct {
	VoteUUID  uuid.UUID `gorm:"column:vote_uuid;type:uuid;primaryKey"`
	UserUUID  uuid.UUID `gorm:"column:user_uuid;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
