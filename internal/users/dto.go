package users

import (
	"github.com/google/uuid"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	dbtypes "github.com/tripgather/tripgather-backend/pkg/db/types"
)

// ProfileDTO is the public view of a user joined with their profile.
type ProfileDTO struct {
	UUID           uuid.UUID     `json:"uuid"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Gender         *string       `json:"gender"`
	Birthdate      *dbtypes.Date `json:"birthdate"`
	ParadoxFlag    bool          `json:"paradox_flag"`
	ProfilePicture *string       `json:"profile_picture"`
}

// CreateUserDTO holds the data the repository needs to persist a new user.
type CreateUserDTO struct {
	UUID         uuid.UUID
	Email        string
	PasswordHash string
}

func (d CreateUserDTO) ToModel() *models.User {
	id := d.UUID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &models.User{
		UUID:     id,
		Email:    d.Email,
		Password: d.PasswordHash,
	}
}

// CreateProfileDTO seeds the 1:1 profile row. ProfilePicture always starts empty.
type CreateProfileDTO struct {
	UserUUID    uuid.UUID
	Name        string
	Gender      *string
	Birthdate   *dbtypes.Date
	ParadoxFlag bool
}

func (d CreateProfileDTO) ToModel() *models.UserProfile {
	return &models.UserProfile{
		UUID:        d.UserUUID,
		Name:        d.Name,
		Gender:      d.Gender,
		Birthdate:   d.Birthdate,
		ParadoxFlag: d.ParadoxFlag,
	}
}
