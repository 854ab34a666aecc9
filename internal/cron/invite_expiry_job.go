package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tripgather/tripgather-backend/pkg/logger"
)

const defaultInviteTTL = 14 * 24 * time.Hour

type InviteExpiryJobParams struct {
	Logger  *logger.Logger
	Invites inviteExpirer
	TTL     time.Duration
}

type inviteExpirer interface {
	ExpireStaleInvites(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewInviteExpiryJob(params InviteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invite expirer required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &inviteExpiryJob{logg: params.Logger, invites: params.Invites, ttl: ttl, now: time.Now}, nil
}

type inviteExpiryJob struct {
	logg    *logger.Logger
	invites inviteExpirer
	ttl     time.Duration
	now     func() time.Time
}

func (j *inviteExpiryJob) Name() string { return "group-invite-expiry" }

func (j *inviteExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.invites.ExpireStaleInvites(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("invite expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"invites_expired": expired,
	})
	j.logg.Info(logCtx, "invite expiry complete")
	return nil
}
