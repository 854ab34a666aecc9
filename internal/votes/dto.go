package votes

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

// CreateTravelVoteInput feeds the transactional workflow. ScheduleUUID
// attaches the vote to an existing group schedule instead of creating one.
type CreateTravelVoteInput struct {
	GroupUUID    uuid.UUID
	CreatorUUID  uuid.UUID
	Title        string
	Location     string
	StartDate    dbtypes.Date
	EndDate      dbtypes.Date
	Headcount    *int
	Description  string
	VoteDeadline time.Time
	ScheduleUUID *uuid.UUID
}

// CreatedVote is what the workflow commits.
type CreatedVote struct {
	UUID         uuid.UUID `json:"uuid"`
	ScheduleUUID uuid.UUID `json:"schedule_uuid"`
	ChatRoomUUID uuid.UUID `json:"chat_room_uuid"`
}

// CreateVoteRequest is the body of POST /api/votes.
type CreateVoteRequest struct {
	GroupUUID    uuid.UUID     `json:"group_uuid" validate:"required"`
	Title        string        `json:"title" validate:"required,max=200"`
	Location     string        `json:"location" validate:"required,max=200"`
	StartDate    *dbtypes.Date `json:"startDate" validate:"required"`
	EndDate      *dbtypes.Date `json:"endDate" validate:"required"`
	Headcount    *int          `json:"headcount,omitempty" validate:"omitempty,gt=0"`
	Description  string        `json:"description,omitempty"`
	VoteDeadline *time.Time    `json:"voteDeadline" validate:"required"`
}

type VoteDTO struct {
	UUID             uuid.UUID    `json:"uuid"`
	GroupUUID        uuid.UUID    `json:"group_uuid"`
	CreatorUUID      uuid.UUID    `json:"creator_uuid"`
	Title            string       `json:"title"`
	Location         string       `json:"location"`
	StartDate        dbtypes.Date `json:"start_date"`
	EndDate          dbtypes.Date `json:"end_date"`
	Headcount        *int         `json:"headcount"`
	Description      string       `json:"description"`
	VoteDeadline     time.Time    `json:"vote_deadline"`
	ScheduleUUID     uuid.UUID    `json:"schedule_uuid"`
	ChatRoomUUID     *uuid.UUID   `json:"chat_room_uuid,omitempty"`
	ParticipantCount int64        `json:"participant_count"`
	Participating    bool         `json:"participating"`
	CreatedAt        time.Time    `json:"created_at"`
}

func voteFromModel(m models.TravelVote) VoteDTO {
	return VoteDTO{
		UUID:         m.UUID,
		GroupUUID:    m.GroupUUID,
		CreatorUUID:  m.CreatorUUID,
		Title:        m.Title,
		Location:     m.Location,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		Headcount:    m.Headcount,
		Description:  m.Description,
		VoteDeadline: m.VoteDeadline,
		ScheduleUUID: m.ScheduleUUID,
		CreatedAt:    m.CreatedAt,
	}
}

type createdPayload struct {
	VoteUUID  uuid.UUID `json:"voteUuid"`
	GroupUUID uuid.UUID `json:"groupUuid"`
}

type participationPayload struct {
	VoteUUID         uuid.UUID `json:"voteUuid"`
	ParticipantCount int64     `json:"participant_count"`
	UserUUID         uuid.UUID `json:"userUuid"`
	Participate      bool      `json:"participate"`
}
