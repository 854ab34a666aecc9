package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/pkg/db"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

// Service exposes profile reads and partial updates.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	SearchByEmail(ctx context.Context, email string) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*ProfileDTO, error)
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type ServiceParams struct {
	DB *db.Client
}

type service struct {
	db *db.Client
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{db: params.DB}, nil
}

func (s *service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo().FindProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return profile, nil
}

func (s *service) SearchByEmail(ctx context.Context, email string) (*ProfileDTO, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	profile, err := s.repo().FindProfileByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search user")
	}
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*ProfileDTO, error) {
	if patch.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields provided")
	}
	if patch.Name.Set && strings.TrimSpace(patch.Name.Value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	affected, err := s.repo().UpdateProfile(ctx, userID, patch.Columns())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	ok, err := s.repo().Exists(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user")
	}
	return ok, nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
