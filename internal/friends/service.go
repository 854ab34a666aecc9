package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/internal/users"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/enums"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// Service manages the friend graph.
type Service interface {
	SendRequest(ctx context.Context, requesterID, targetID uuid.UUID) error
	// AcceptRequest reports false when no pending request from requesterID exists.
	AcceptRequest(ctx context.Context, receiverID, requesterID uuid.UUID) (bool, error)
	RejectRequest(ctx context.Context, receiverID, requesterID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ServiceParams struct {
	DB        *db.Client
	Publisher realtime.Publisher
	Logger    *logger.Logger
}

type service struct {
	db        *db.Client
	publisher realtime.Publisher
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &service{db: params.DB, publisher: publisher, logg: params.Logger}, nil
}

func (s *service) SendRequest(ctx context.Context, requesterID, targetID uuid.UUID) error {
	if requesterID == targetID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot send a friend request to yourself")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		exists, err := users.NewRepository(tx).Exists(ctx, targetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		repo := NewRepository(tx)
		for _, pair := range [][2]uuid.UUID{{requesterID, targetID}, {targetID, requesterID}} {
			row, err := repo.Find(ctx, pair[0], pair[1])
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup friendship")
			}
			if row.Status == enums.FriendStatusAccepted {
				return pkgerrors.New(pkgerrors.CodeConflict, "already friends")
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "friend request already pending")
		}

		if err := repo.CreatePending(ctx, requesterID, targetID); err != nil {
			if db.IsUniqueViolation(err, "friends") {
				return pkgerrors.New(pkgerrors.CodeConflict, "friend request already pending")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create friend request")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, targetID, realtime.EventFriendRequestReceived, requestReceivedPayload{RequesterUUID: requesterID})
	return nil
}

func (s *service) AcceptRequest(ctx context.Context, receiverID, requesterID uuid.UUID) (bool, error) {
	accepted := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindPending(ctx, requesterID, receiverID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup friend request")
		}

		affected, err := repo.MarkAccepted(ctx, requesterID, receiverID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept friend request")
		}
		if affected == 0 {
			return nil
		}

		if err := repo.UpsertAccepted(ctx, receiverID, requesterID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reverse friendship")
		}
		accepted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if accepted {
		s.emit(ctx, requesterID, realtime.EventFriendRequestAccepted, requestAcceptedPayload{FriendUUID: receiverID})
	}
	return accepted, nil
}

func (s *service) RejectRequest(ctx context.Context, receiverID, requesterID uuid.UUID) error {
	deleted, err := NewRepository(s.db.DB()).DeletePending(ctx, requesterID, receiverID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject friend request")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "friend request not found")
	}
	return nil
}

func (s *service) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		ok, err := repo.AreFriends(ctx, userID, friendID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup friendship")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "friendship not found")
		}
		if _, err := repo.DeletePair(ctx, userID, friendID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove friendship")
		}
		return nil
	})
}

func (s *service) ListFriends(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error) {
	out, err := NewRepository(s.db.DB()).ListAccepted(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list friends")
	}
	return out, nil
}

func (s *service) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]FriendDTO, error) {
	out, err := NewRepository(s.db.DB()).ListIncomingPending(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list friend requests")
	}
	return out, nil
}

func (s *service) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	ok, err := NewRepository(s.db.DB()).AreFriends(ctx, a, b)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup friendship")
	}
	return ok, nil
}

func (s *service) emit(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if err := s.publisher.Publish(ctx, userID.String(), event, payload); err != nil && s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"event": event, "user_id": userID.String()})
		s.logg.Warn(ctx, "realtime emit failed: "+err.Error())
	}
}
