package groups

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
)

// SurveyInput leaves unanswered questions nil; they are stored as 0.
type SurveyInput struct {
	ActivityType *int `json:"activity_type"`
	BudgetType   *int `json:"budget_type"`
	TripDuration *int `json:"trip_duration"`
}

func (s SurveyInput) toModel(groupID uuid.UUID) *models.GroupSurvey {
	return &models.GroupSurvey{
		GroupUUID:    groupID,
		ActivityType: intOrZero(s.ActivityType),
		BudgetType:   intOrZero(s.BudgetType),
		TripDuration: intOrZero(s.TripDuration),
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

type CreateGroupInput struct {
	Name        string
	Description string
	Visibility  enums.GroupVisibility
	LeaderUUID  uuid.UUID
	IconURL     *string
	PictureURL  *string
	// Icon and Picture are raw uploads stored after the group commits.
	Icon    []byte
	Picture []byte
	Survey  SurveyInput
}

func (in *CreateGroupInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Visibility == "" {
		in.Visibility = enums.GroupVisibilityPublic
	}
}

type SurveyDTO struct {
	ActivityType int `json:"activity_type"`
	BudgetType   int `json:"budget_type"`
	TripDuration int `json:"trip_duration"`
}

// GroupInfo is the full group returned after creation and by GetGroup.
type GroupInfo struct {
	UUID            uuid.UUID             `json:"uuid"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	GroupIcon       *string               `json:"group_icon"`
	GroupPicture    *string               `json:"group_picture"`
	Visibility      enums.GroupVisibility `json:"visibility"`
	GroupLeaderUUID uuid.UUID             `json:"group_leader_uuid"`
	CreatedAt       time.Time             `json:"created_at"`
	Survey          SurveyDTO             `json:"survey"`
	MemberCount     int64                 `json:"member_count"`
	ChatRoomUUID    *uuid.UUID            `json:"chat_room_uuid,omitempty"`
}

func groupInfoFromModels(g *models.Group, survey *models.GroupSurvey) *GroupInfo {
	info := &GroupInfo{
		UUID:            g.UUID,
		Name:            g.Name,
		Description:     g.Description,
		GroupIcon:       g.GroupIcon,
		GroupPicture:    g.GroupPicture,
		Visibility:      g.Visibility,
		GroupLeaderUUID: g.GroupLeaderUUID,
		CreatedAt:       g.CreatedAt,
	}
	if survey != nil {
		info.Survey = SurveyDTO{
			ActivityType: survey.ActivityType,
			BudgetType:   survey.BudgetType,
			TripDuration: survey.TripDuration,
		}
	}
	return info
}

type GroupSummary struct {
	UUID            uuid.UUID             `json:"uuid" gorm:"column:uuid"`
	Name            string                `json:"name" gorm:"column:name"`
	Description     string                `json:"description" gorm:"column:description"`
	GroupIcon       *string               `json:"group_icon" gorm:"column:group_icon"`
	Visibility      enums.GroupVisibility `json:"visibility" gorm:"column:visibility"`
	GroupLeaderUUID uuid.UUID             `json:"group_leader_uuid" gorm:"column:group_leader_uuid"`
	MemberCount     int64                 `json:"member_count" gorm:"column:member_count"`
}

type InviteDTO struct {
	UUID        uuid.UUID          `json:"uuid" gorm:"column:uuid"`
	GroupUUID   uuid.UUID          `json:"group_uuid" gorm:"column:group_uuid"`
	GroupName   string             `json:"group_name" gorm:"column:group_name"`
	InviterUUID uuid.UUID          `json:"inviter_uuid" gorm:"column:inviter_uuid"`
	InviteeUUID uuid.UUID          `json:"invitee_uuid" gorm:"column:invitee_uuid"`
	Status      enums.InviteStatus `json:"status" gorm:"column:status"`
	CreatedAt   time.Time          `json:"created_at" gorm:"column:created_at"`
}

type AnnouncementDTO struct {
	UUID       uuid.UUID `json:"uuid"`
	GroupUUID  uuid.UUID `json:"group_uuid"`
	AuthorUUID uuid.UUID `json:"author_uuid"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type memberLeftPayload struct {
	GroupUUID uuid.UUID `json:"groupUuid"`
	UserUUID  uuid.UUID `json:"userUuid"`
}
