package cron

import (
	"context"
	"fmt"

	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type LonelyDMRoomJobParams struct {
	Logger *logger.Logger
	Rooms  lonelyRoomSweeper
}

type lonelyRoomSweeper interface {
	DeleteLonelyDMRooms(ctx context.Context) (int64, error)
}

// NewLonelyDMRoomJob removes DM rooms that one side has left.
func NewLonelyDMRoomJob(params LonelyDMRoomJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rooms == nil {
		return nil, fmt.Errorf("chat room sweeper required")
	}
	return &lonelyDMRoomJob{logg: params.Logger, rooms: params.Rooms}, nil
}

type lonelyDMRoomJob struct {
	logg  *logger.Logger
	rooms lonelyRoomSweeper
}

func (j *lonelyDMRoomJob) Name() string { return "lonely-dm-rooms" }

func (j *lonelyDMRoomJob) Run(ctx context.Context) error {
	deleted, err := j.rooms.DeleteLonelyDMRooms(ctx)
	if err != nil {
		return fmt.Errorf("lonely dm sweep: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rooms_deleted", deleted), "lonely dm sweep complete")
	return nil
}
