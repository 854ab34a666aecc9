package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/cron"
	"github.com/tripgather/tripgather-backend/internal/friends"
	"github.com/tripgather/tripgather-backend/internal/groups"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/instance"
	"github.com/tripgather/tripgather-backend/pkg/logger"
	"github.com/tripgather/tripgather-backend/pkg/metrics"
	"github.com/tripgather/tripgather-backend/pkg/migrate"
	"github.com/tripgather/tripgather-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), instance.GetID(), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	friendService, err := friends.NewService(friends.ServiceParams{DB: dbClient, Logger: logg})
	exitOnErr(logg, "friend service", err)
	chatService, err := chats.NewService(chats.ServiceParams{DB: dbClient, Friends: friendService, Logger: logg})
	exitOnErr(logg, "chat service", err)
	groupService, err := groups.NewService(groups.ServiceParams{DB: dbClient, Rooms: chatService, Logger: logg})
	exitOnErr(logg, "group service", err)

	registry := cron.NewRegistry()
	if cfg.Cron.LonelyDMEnabled {
		job, err := cron.NewLonelyDMRoomJob(cron.LonelyDMRoomJobParams{Logger: logg, Rooms: chatService})
		exitOnErr(logg, "lonely dm job", err)
		exitOnErr(logg, "lonely dm job", registry.Register(job))
	}
	inviteJob, err := cron.NewInviteExpiryJob(cron.InviteExpiryJobParams{Logger: logg, Invites: groupService})
	exitOnErr(logg, "invite expiry job", err)
	exitOnErr(logg, "invite expiry job", registry.Register(inviteJob))

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	exitOnErr(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func exitOnErr(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name, err)
		os.Exit(1)
	}
}
