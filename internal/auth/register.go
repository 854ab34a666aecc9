package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/users"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/db"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/security"
)

const emailTakenMessage = "email already registered"

// RegisterService creates a user and its profile atomically.
type RegisterService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SessionUser, error)
}

// RegisterServiceParams packages the dependencies for the sign-up flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{db: params.DB, passwordCfg: params.PasswordConfig}, nil
}

// SignUp inserts users, re-reads the row by email, then inserts user_profiles,
// all on one transaction. A committed user always has exactly one profile.
func (s *registerService) SignUp(ctx context.Context, req SignUpRequest) (*SessionUser, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created SessionUser
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if _, err := repo.Create(ctx, users.CreateUserDTO{UUID: uuid.New(), Email: email, PasswordHash: hash}); err != nil {
			return err
		}

		user, err := repo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		if _, err := repo.CreateProfile(ctx, users.CreateProfileDTO{
			UserUUID:    user.UUID,
			Name:        strings.TrimSpace(req.Name),
			Gender:      req.Gender,
			Birthdate:   req.Birthdate,
			ParadoxFlag: req.ParadoxFlag,
		}); err != nil {
			return err
		}

		created = SessionUser{UUID: user.UUID, Email: user.Email}
		return nil
	})
	if err != nil {
		return nil, mapSignUpError(err)
	}
	return &created, nil
}

func mapSignUpError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "email") {
		return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign up user")
}
