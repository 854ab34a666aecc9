package friends

import (
	"time"

	"github.com/google/uuid"
)

// FriendDTO is a friend or requester joined with their profile.
type FriendDTO struct {
	UUID           uuid.UUID `json:"uuid" gorm:"column:uuid"`
	Email          string    `json:"email" gorm:"column:email"`
	Name           string    `json:"name" gorm:"column:name"`
	ProfilePicture *string   `json:"profile_picture,omitempty" gorm:"column:profile_picture"`
	Since          time.Time `json:"since" gorm:"column:since"`
}

type requestReceivedPayload struct {
	RequesterUUID uuid.UUID `json:"requesterUuid"`
}

type requestAcceptedPayload struct {
	FriendUUID uuid.UUID `json:"friendUuid"`
}
