package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/enums"
)

type Group struct {
	UUID            uuid.UUID             `gorm:"column:uuid;type:uuid;primaryKey"`
	Name            string                `gorm:"column:name;type:text;not null"`
	Description     string                `gorm:"column:description;type:text;not null;default:''"`
	GroupIcon       *string               `gorm:"column:group_icon;type:text"`
	GroupPicture    *string               `gorm:"column:group_picture;type:text"`
	Visibility      enums.GroupVisibility `gorm:"column:visibility;type:text;not null"`
	GroupLeaderUUID uuid.UUID             `gorm:"column:group_leader_uuid;type:uuid;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Group) TableName() string {
	return "group_info"
}

// GroupMember holds at most one leader row per group, enforced by a partial unique index.
type GroupMember struct {
	GroupUUID uuid.UUID       `gorm:"column:group_uuid;type:uuid;primaryKey"`
	UserUUID  uuid.UUID       `gorm:"column:user_uuid;type:uuid;primaryKey"`
	Role      enums.GroupRole `gorm:"column:role;type:text;not null"`
	JoinedAt  time.Time       `gorm:"column:joined_at;autoCreateTime"`
}

type GroupSurvey struct {
	GroupUUID    uuid.UUID `gorm:"column:group_uuid;type:uuid;primaryKey"`
	ActivityType int       `gorm:"column:activity_type;not null;default:0"`
	BudgetType   int       `gorm:"column:budget_type;not null;default:0"`
	TripDuration int       `gorm:"column:trip_duration;not null;default:0"`
}

type GroupInvite struct {
	UUID        uuid.UUID          `gorm:"column:uuid;type:uuid;primaryKey"`
	GroupUUID   uuid.UUID          `gorm:"column:group_uuid;type:uuid;not null"`
	InviterUUID uuid.UUID          `gorm:"column:inviter_uuid;type:uuid;not null"`
	InviteeUUID uuid.UUID          `gorm:"column:invitee_uuid;type:uuid;not null"`
	Status      enums.InviteStatus `gorm:"column:status;type:text;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

type Announcement struct {
	UUID       uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	GroupUUID  uuid.UUID `gorm:"column:group_uuid;type:uuid;not null"`
	AuthorUUID uuid.UUID `gorm:"column:author_uuid;type:uuid;not null"`
	Title      string    `gorm:"column:title;type:text;not null"`
	Content    string    `gorm:"column:content;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
