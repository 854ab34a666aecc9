package votes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/internal/schedules"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateVoteRequest) (*CreatedVote, error)
	CreateTravelVote(ctx context.Context, input CreateTravelVoteInput) (*CreatedVote, error)
	Participate(ctx context.Context, voteID, userID uuid.UUID, participate bool) (int64, error)
	ListGroupVotes(ctx context.Context, groupID, viewerID uuid.UUID) ([]VoteDTO, error)
	GetVote(ctx context.Context, voteID, viewerID uuid.UUID) (*VoteDTO, error)
}

type groupMembership interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

type ServiceParams struct {
	DB        *db.Client
	Groups    groupMembership
	Publisher realtime.Publisher
	Logger    *logger.Logger
	Clock     func() time.Time
}

type service struct {
	db        *db.Client
	groups    groupMembership
	publisher realtime.Publisher
	logg      *logger.Logger
	clock     func() time.Time
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
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{db: params.DB, groups: params.Groups, publisher: publisher, logg: params.Logger, clock: clock}, nil
}

// Create validates the request, runs the workflow and then tells the group.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateVoteRequest) (*CreatedVote, error) {
	input, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	input.CreatorUUID = actorID
	if err := s.requireGroupMember(ctx, input.GroupUUID, actorID); err != nil {
		return nil, err
	}

	created, err := s.CreateTravelVote(ctx, input)
	if err != nil {
		return nil, err
	}

	payload := createdPayload{VoteUUID: created.UUID, GroupUUID: input.GroupUUID}
	if err := s.publisher.Publish(ctx, input.GroupUUID.String(), realtime.EventTravelVoteCreated, payload); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithGroupID(ctx, input.GroupUUID.String()), "emit travelVoteCreated failed: "+err.Error())
	}
	return created, nil
}

func (s *service) validate(req CreateVoteRequest) (CreateTravelVoteInput, error) {
	input := CreateTravelVoteInput{
		GroupUUID:   req.GroupUUID,
		Title:       strings.TrimSpace(req.Title),
		Location:    strings.TrimSpace(req.Location),
		Headcount:   req.Headcount,
		Description: strings.TrimSpace(req.Description),
	}
	if input.GroupUUID == uuid.Nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "group_uuid is required")
	}
	if input.Title == "" || input.Location == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "title and location are required")
	}
	if req.StartDate == nil || req.EndDate == nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "startDate and endDate are required")
	}
	if req.EndDate.Before(req.StartDate.Time) {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	if req.VoteDeadline == nil || req.VoteDeadline.IsZero() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "voteDeadline is required")
	}
	if req.Headcount != nil && *req.Headcount <= 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "headcount must be positive")
	}
	input.StartDate = *req.StartDate
	input.EndDate = *req.EndDate
	input.VoteDeadline = req.VoteDeadline.UTC()
	return input, nil
}

// CreateTravelVote commits the schedule, its creator membership, the vote,
// the creator's participation and the schedule chat room together. The
// creator is seated in the room.
func (s *service) CreateTravelVote(ctx context.Context, input CreateTravelVoteInput) (*CreatedVote, error) {
	var created CreatedVote
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		scheduleRepo := schedules.NewRepository(tx)

		scheduleID, err := s.resolveSchedule(ctx, scheduleRepo, input)
		if err != nil {
			return err
		}
		if err := scheduleRepo.AddMember(ctx, scheduleID, input.CreatorUUID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add schedule member")
		}

		vote := &models.TravelVote{
			UUID:         uuid.New(),
			GroupUUID:    input.GroupUUID,
			CreatorUUID:  input.CreatorUUID,
			Title:        input.Title,
			Location:     input.Location,
			StartDate:    input.StartDate,
			EndDate:      input.EndDate,
			Headcount:    input.Headcount,
			Description:  input.Description,
			VoteDeadline: input.VoteDeadline.UTC(),
			ScheduleUUID: scheduleID,
		}
		repo := NewRepository(tx)
		if err := repo.Create(ctx, vote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create travel vote")
		}
		if err := repo.AddParticipant(ctx, vote.UUID, input.CreatorUUID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add vote participant")
		}

		roomID, err := EnsureScheduleChatRoom(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if err := chats.NewRepository(tx).AddMemberIfAbsent(ctx, roomID, input.CreatorUUID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "join schedule chat room")
		}

		created = CreatedVote{UUID: vote.UUID, ScheduleUUID: scheduleID, ChatRoomUUID: roomID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) resolveSchedule(ctx context.Context, repo *schedules.Repository, input CreateTravelVoteInput) (uuid.UUID, error) {
	if input.ScheduleUUID != nil {
		existing, err := repo.Find(ctx, *input.ScheduleUUID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "schedule not found")
		}
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule")
		}
		if existing.GroupUUID == nil || *existing.GroupUUID != input.GroupUUID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "schedule does not belong to this group")
		}
		return existing.UUID, nil
	}

	groupID := input.GroupUUID
	schedule := &models.Schedule{
		UUID:        uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartTime:   input.StartDate.Time.UTC(),
		EndTime:     input.EndDate.Time.UTC(),
		Type:        enums.ScheduleTypeGroup,
		OwnerUUID:   input.CreatorUUID,
		GroupUUID:   &groupID,
	}
	if err := repo.Create(ctx, schedule); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create schedule")
	}
	return schedule.UUID, nil
}

// EnsureScheduleChatRoom returns the schedule's chat room, creating it on tx
// when none exists yet.
func EnsureScheduleChatRoom(ctx context.Context, tx *gorm.DB, scheduleID uuid.UUID) (uuid.UUID, error) {
	repo := chats.NewRepository(tx)
	room, err := repo.FindScheduleRoom(ctx, scheduleID)
	if err == nil {
		return room.UUID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule chat room")
	}

	sid := scheduleID
	room = &models.ChatRoom{Type: enums.ChatRoomTypeSchedule, ScheduleUUID: &sid}
	if err := repo.CreateRoom(ctx, room); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create schedule chat room")
	}
	return room.UUID, nil
}

// Participate toggles the user's participation and returns the new count.
func (s *service) Participate(ctx context.Context, voteID, userID uuid.UUID, participate bool) (int64, error) {
	vote, err := s.find(ctx, voteID)
	if err != nil {
		return 0, err
	}
	if err := s.requireGroupMember(ctx, vote.GroupUUID, userID); err != nil {
		return 0, err
	}
	if !s.clock().Before(vote.VoteDeadline) {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "the vote deadline has passed")
	}
	if !participate && vote.CreatorUUID == userID {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "the vote creator cannot withdraw")
	}

	var count int64
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		scheduleRepo := schedules.NewRepository(tx)
		chatRepo := chats.NewRepository(tx)

		if participate && vote.Headcount != nil {
			if err := repo.Lock(ctx, vote.UUID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock travel vote")
			}
		}

		room, err := chatRepo.FindScheduleRoom(ctx, vote.ScheduleUUID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule chat room")
		}

		if participate {
			already, err := repo.IsParticipant(ctx, vote.UUID, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check participation")
			}
			if !already && vote.Headcount != nil {
				current, err := repo.CountParticipants(ctx, vote.UUID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count participants")
				}
				if current >= int64(*vote.Headcount) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "the trip is full")
				}
			}
			if _, err := repo.AddParticipantIfAbsent(ctx, vote.UUID, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add participant")
			}
			if err := scheduleRepo.AddMember(ctx, vote.ScheduleUUID, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add schedule member")
			}
			if room != nil {
				if err := chatRepo.AddMemberIfAbsent(ctx, room.UUID, userID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "join schedule chat room")
				}
			}
		} else {
			if _, err := repo.RemoveParticipant(ctx, vote.UUID, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove participant")
			}
			if _, err := scheduleRepo.RemoveMember(ctx, vote.ScheduleUUID, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove schedule member")
			}
			if room != nil {
				if _, err := chatRepo.RemoveMember(ctx, room.UUID, userID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "leave schedule chat room")
				}
			}
		}

		count, err = repo.CountParticipants(ctx, vote.UUID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count participants")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	payload := participationPayload{VoteUUID: vote.UUID, ParticipantCount: count, UserUUID: userID, Participate: participate}
	if err := s.publisher.Publish(ctx, vote.GroupUUID.String(), realtime.EventVoteParticipationUpdated, payload); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithGroupID(ctx, vote.GroupUUID.String()), "emit voteParticipationUpdated failed: "+err.Error())
	}
	return count, nil
}

func (s *service) ListGroupVotes(ctx context.Context, groupID, viewerID uuid.UUID) ([]VoteDTO, error) {
	if err := s.requireGroupMember(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	repo := NewRepository(s.db.DB())
	rows, err := repo.ListForGroup(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list votes")
	}
	out := make([]VoteDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := s.decorate(ctx, row, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) GetVote(ctx context.Context, voteID, viewerID uuid.UUID) (*VoteDTO, error) {
	vote, err := s.find(ctx, voteID)
	if err != nil {
		return nil, err
	}
	if err := s.requireGroupMember(ctx, vote.GroupUUID, viewerID); err != nil {
		return nil, err
	}
	dto, err := s.decorate(ctx, *vote, viewerID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) decorate(ctx context.Context, vote models.TravelVote, viewerID uuid.UUID) (VoteDTO, error) {
	dto := voteFromModel(vote)
	repo := NewRepository(s.db.DB())

	count, err := repo.CountParticipants(ctx, vote.UUID)
	if err != nil {
		return dto, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count participants")
	}
	dto.ParticipantCount = count

	participating, err := repo.IsParticipant(ctx, vote.UUID, viewerID)
	if err != nil {
		return dto, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check participation")
	}
	dto.Participating = participating

	room, err := chats.NewRepository(s.db.DB()).FindScheduleRoom(ctx, vote.ScheduleUUID)
	switch {
	case err == nil:
		dto.ChatRoomUUID = &room.UUID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load schedule chat room")
	}
	return dto, nil
}

func (s *service) find(ctx context.Context, voteID uuid.UUID) (*models.TravelVote, error) {
	vote, err := NewRepository(s.db.DB()).Find(ctx, voteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vote not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vote")
	}
	return vote, nil
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
