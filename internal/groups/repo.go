package groups

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *Repository) FindGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Take(&group, "uuid = ?", groupID).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *Repository) CreateSurvey(ctx context.Context, survey *models.GroupSurvey) error {
	return r.db.WithContext(ctx).Create(survey).Error
}

// FindSurvey returns gorm.ErrRecordNotFound for groups created without one.
func (r *Repository) FindSurvey(ctx context.Context, groupID uuid.UUID) (*models.GroupSurvey, error) {
	var survey models.GroupSurvey
	if err := r.db.WithContext(ctx).Take(&survey, "group_uuid = ?", groupID).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *Repository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role enums.GroupRole) error {
	return r.db.WithContext(ctx).Create(&models.GroupMember{GroupUUID: groupID, UserUUID: userID, Role: role}).Error
}

func (r *Repository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_uuid = ? AND user_uuid = ?", groupID, userID).
		Delete(&models.GroupMember{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindMember(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_uuid = ? AND user_uuid = ?", groupID, userID).
		Take(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_uuid = ? AND user_uuid = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).Where("group_uuid = ?", groupID).Count(&count).Error
	return count, err
}

// UpdateImages writes only the non-nil urls.
func (r *Repository) UpdateImages(ctx context.Context, groupID uuid.UUID, iconURL, pictureURL *string) (int64, error) {
	cols := map[string]any{"updated_at": time.Now().UTC()}
	if iconURL != nil {
		cols["group_icon"] = *iconURL
	}
	if pictureURL != nil {
		cols["group_picture"] = *pictureURL
	}
	res := r.db.WithContext(ctx).Model(&models.Group{}).Where("uuid = ?", groupID).Updates(cols)
	return res.RowsAffected, res.Error
}

func (r *Repository) summaryQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("group_info g").
		Select("g.uuid, g.name, g.description, g.group_icon, g.visibility, g.group_leader_uuid, " +
			"(SELECT COUNT(*) FROM group_members c WHERE c.group_uuid = g.uuid) AS member_count")
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error) {
	var out []GroupSummary
	err := r.summaryQuery(ctx).
		Joins("JOIN group_members m ON m.group_uuid = g.uuid").
		Where("m.user_uuid = ?", userID).
		Order("g.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *Repository) ListPublic(ctx context.Context, search string, limit int) ([]GroupSummary, error) {
	q := r.summaryQuery(ctx).Where("g.visibility = ?", enums.GroupVisibilityPublic)
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(g.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var out []GroupSummary
	err := q.Order("g.created_at DESC").Limit(limit).Scan(&out).Error
	return out, err
}

func (r *Repository) CreateInvite(ctx context.Context, invite *models.GroupInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *Repository) FindInvite(ctx context.Context, inviteID uuid.UUID) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	if err := r.db.WithContext(ctx).Take(&invite, "uuid = ?", inviteID).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// ResolveInvite moves a pending invite to status; zero rows means it was already resolved.
func (r *Repository) ResolveInvite(ctx context.Context, inviteID uuid.UUID, status enums.InviteStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GroupInvite{}).
		Where("uuid = ? AND status = ?", inviteID, enums.InviteStatusPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// ExpireInvitesBefore declines invites left pending since before cutoff.
func (r *Repository) ExpireInvitesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GroupInvite{}).
		Where("status = ? AND created_at < ?", enums.InviteStatusPending, cutoff.UTC()).
		Update("status", enums.InviteStatusDeclined)
	return res.RowsAffected, res.Error
}

func (r *Repository) ListPendingInvites(ctx context.Context, userID uuid.UUID) ([]InviteDTO, error) {
	var out []InviteDTO
	err := r.db.WithContext(ctx).
		Table("group_invites i").
		Select("i.uuid, i.group_uuid, g.name AS group_name, i.inviter_uuid, i.invitee_uuid, i.status, i.created_at").
		Joins("JOIN group_info g ON g.uuid = i.group_uuid").
		Where("i.invitee_uuid = ? AND i.status = ?", userID, enums.InviteStatusPending).
		Order("i.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *Repository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repository) ListAnnouncements(ctx context.Context, groupID uuid.UUID) ([]models.Announcement, error) {
	var out []models.Announcement
	err := r.db.WithContext(ctx).
		Where("group_uuid = ?", groupID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
