package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
)

// Repository exposes user and profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to a connection or an open transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail returns gorm.ErrRecordNotFound when no user matches.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "uuid = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("uuid = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateProfile(ctx context.Context, dto CreateProfileDTO) (*models.UserProfile, error) {
	profile := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *Repository) profileQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users").
		Select("users.uuid, users.email, p.name, p.gender, p.birthdate, p.paradox_flag, p.profile_picture").
		Joins("JOIN user_profiles p ON p.uuid = users.uuid")
}

// FindProfile joins users with user_profiles.
func (r *Repository) FindProfile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	var dto ProfileDTO
	if err := r.profileQuery(ctx).Where("users.uuid = ?", id).Take(&dto).Error; err != nil {
		return nil, err
	}
	return &dto, nil
}

func (r *Repository) FindProfileByEmail(ctx context.Context, email string) (*ProfileDTO, error) {
	var dto ProfileDTO
	if err := r.profileQuery(ctx).Where("users.email = ?", email).Take(&dto).Error; err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListProfiles loads profiles for the given users, unordered.
func (r *Repository) ListProfiles(ctx context.Context, ids []uuid.UUID) ([]ProfileDTO, error) {
	out := []ProfileDTO{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.profileQuery(ctx).Where("users.uuid IN ?", ids).Order("p.name ASC").Find(&out).Error
	return out, err
}

// UpdateProfile writes only the provided columns and reports how many rows matched.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, cols map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("uuid = ?", id).
		Updates(cols)
	return res.RowsAffected, res.Error
}
