package schedules

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type Service interface {
	CreateSchedule(ctx context.Context, ownerID uuid.UUID, input CreateScheduleInput) (*ScheduleDTO, error)
	ListUserSchedules(ctx context.Context, userID uuid.UUID) ([]ScheduleDTO, error)
	ListGroupSchedules(ctx context.Context, groupID, viewerID uuid.UUID) ([]ScheduleDTO, error)
	JoinSchedule(ctx context.Context, scheduleID, userID uuid.UUID) error
	LeaveSchedule(ctx context.Context, scheduleID, userID uuid.UUID) error
	IsMember(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error)
}

type groupMembership interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

type ServiceParams struct {
	DB        *db.Client
	Groups    groupMembership
	Publisher realtime.Publisher
	Logger    *logger.Logger
}

type service struct {
	db        *db.Client
	groups    groupMembership
	publisher realtime.Publisher
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Groups == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "group membership checker required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &service{db: params.DB, groups: params.Groups, publisher: publisher, logg: params.Logger}, nil
}

func (s *service) CreateSchedule(ctx context.Context, ownerID uuid.UUID, input CreateScheduleInput) (*ScheduleDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Type == "" {
		input.Type = enums.ScheduleTypePersonal
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Type == enums.ScheduleTypeGroup {
		if err := s.requireGroupMember(ctx, *input.GroupUUID, ownerID); err != nil {
			return nil, err
		}
	} else {
		input.GroupUUID = nil
	}

	schedule := &models.Schedule{
		UUID:        uuid.New(),
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartTime:   input.StartTime.UTC(),
		EndTime:     input.EndTime.UTC(),
		Type:        input.Type,
		OwnerUUID:   ownerID,
		GroupUUID:   input.GroupUUID,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.Create(ctx, schedule); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create schedule")
		}
		if err := repo.AddMember(ctx, schedule.UUID, ownerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add schedule owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if schedule.GroupUUID != nil {
		payload := createdPayload{ScheduleUUID: schedule.UUID, GroupUUID: *schedule.GroupUUID, Title: schedule.Title}
		if err := s.publisher.Publish(ctx, schedule.GroupUUID.String(), realtime.EventScheduleCreated, payload); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithGroupID(ctx, schedule.GroupUUID.String()), "emit scheduleCreated failed: "+err.Error())
		}
	}

	dto := FromModel(*schedule)
	return &dto, nil
}

func validateInput(input CreateScheduleInput) error {
	if input.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid schedule type")
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end time are required")
	}
	if input.EndTime.Before(input.StartTime) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end time must not be before start time")
	}
	if input.Type == enums.ScheduleTypeGroup && (input.GroupUUID == nil || *input.GroupUUID == uuid.Nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "group schedules need a group")
	}
	return nil
}

func (s *service) ListUserSchedules(ctx context.Context, userID uuid.UUID) ([]ScheduleDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list schedules")
	}
	return toDTOs(rows), nil
}

func (s *service) ListGroupSchedules(ctx context.Context, groupID, viewerID uuid.UUID) ([]ScheduleDTO, error) {
	if err := s.requireGroupMember(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	rows, err := NewRepository(s.db.DB()).ListForGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list group schedules")
	}
	return toDTOs(rows), nil
}

func toDTOs(rows []models.Schedule) []ScheduleDTO {
	out := make([]ScheduleDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

// JoinSchedule is open to members of the schedule's group. Joining also adds
// the user to the schedule chat room when one exists.
func (s *service) JoinSchedule(ctx context.Context, scheduleID, userID uuid.UUID) error {
	schedule, err := s.find(ctx, scheduleID)
	if err != nil {
		return err
	}
	if schedule.GroupUUID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "personal schedules cannot be joined")
	}
	if err := s.requireGroupMember(ctx, *schedule.GroupUUID, userID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewRepository(tx).AddMember(ctx, scheduleID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "join schedule")
		}
		chatRepo := chats.NewRepository(tx)
		room, err := chatRepo.FindScheduleRoom(ctx, scheduleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule chat room")
		}
		if err := chatRepo.AddMemberIfAbsent(ctx, room.UUID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "join schedule chat room")
		}
		return nil
	})
}

func (s *service) LeaveSchedule(ctx context.Context, scheduleID, userID uuid.UUID) error {
	schedule, err := s.find(ctx, scheduleID)
	if err != nil {
		return err
	}
	if schedule.OwnerUUID == userID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the schedule owner cannot leave")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := NewRepository(tx).RemoveMember(ctx, scheduleID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "leave schedule")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "not a member of this schedule")
		}
		chatRepo := chats.NewRepository(tx)
		room, err := chatRepo.FindScheduleRoom(ctx, scheduleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule chat room")
		}
		if _, err := chatRepo.RemoveMember(ctx, room.UUID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "leave schedule chat room")
		}
		return nil
	})
}

func (s *service) IsMember(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error) {
	ok, err := NewRepository(s.db.DB()).IsMember(ctx, scheduleID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check schedule membership")
	}
	return ok, nil
}

func (s *service) find(ctx context.Context, scheduleID uuid.UUID) (*models.Schedule, error) {
	schedule, err := NewRepository(s.db.DB()).Find(ctx, scheduleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "schedule not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule")
	}
	return schedule, nil
}

func (s *service) requireGroupMember(ctx context.Context, groupID, userID uuid.UUID) error {
	ok, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	return nil
}
