package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripgather/tripgather-backend/api/controllers"
	"github.com/tripgather/tripgather-backend/api/routes"
	"github.com/tripgather/tripgather-backend/internal/auth"
	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/friends"
	"github.com/tripgather/tripgather-backend/internal/groups"
	"github.com/tripgather/tripgather-backend/internal/media"
	"github.com/tripgather/tripgather-backend/internal/realtime"
	"github.com/tripgather/tripgather-backend/internal/schedules"
	"github.com/tripgather/tripgather-backend/internal/users"
	"github.com/tripgather/tripgather-backend/internal/votes"
	"github.com/tripgather/tripgather-backend/pkg/auth/session"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/db"
	"github.com/tripgather/tripgather-backend/pkg/env"
	"github.com/tripgather/tripgather-backend/pkg/instance"
	"github.com/tripgather/tripgather-backend/pkg/logger"
	"github.com/tripgather/tripgather-backend/pkg/metrics"
	"github.com/tripgather/tripgather-backend/pkg/migrate"
	"github.com/tripgather/tripgather-backend/pkg/redis"
	"github.com/tripgather/tripgather-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := realtime.NewHub(realtime.HubParams{
		Config:     cfg.Realtime,
		Authorizer: membershipAuthorizer(dbClient),
		Logger:     logg,
		Metrics:    metrics.NewRealtimeMetrics(registry),
	})
	defer hub.Close()

	var publisher realtime.Publisher = hub
	if cfg.Realtime.UseRedis {
		broker, err := realtime.NewRedisBroker(redisClient, cfg.Realtime.RedisChannel, hub, logg)
		if err != nil {
			logg.Error(ctx, "failed to create realtime relay", err)
			os.Exit(1)
		}
		go func() {
			if err := broker.Run(ctx); err != nil {
				logg.Error(ctx, "realtime relay stopped", err)
			}
		}()
		publisher = broker
	}

	ready := map[string]controllers.Pinger{"db": dbClient, "redis": redisClient}

	var mediaService media.Service
	if cfg.Storage.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		ready["gcs"] = gcsClient
		mediaService, err = media.NewService(media.ServiceParams{Uploader: gcsClient, MaxUploadBytes: cfg.Media.MaxUploadBytes()})
		if err != nil {
			logg.Error(ctx, "failed to create media service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "gcs bucket not configured, group image uploads disabled")
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	must(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{DB: dbClient, PasswordConfig: cfg.Password})
	must(ctx, logg, "register service", err)

	userService, err := users.NewService(users.ServiceParams{DB: dbClient})
	must(ctx, logg, "user service", err)

	friendService, err := friends.NewService(friends.ServiceParams{DB: dbClient, Publisher: publisher, Logger: logg})
	must(ctx, logg, "friend service", err)

	chatService, err := chats.NewService(chats.ServiceParams{DB: dbClient, Friends: friendService, Publisher: publisher, Logger: logg})
	must(ctx, logg, "chat service", err)

	groupService, err := groups.NewService(groups.ServiceParams{
		DB:            dbClient,
		Rooms:         chatService,
		Media:         mediaService,
		Publisher:     publisher,
		Logger:        logg,
		MaxImageBytes: cfg.Media.MaxUploadBytes(),
	})
	must(ctx, logg, "group service", err)

	scheduleService, err := schedules.NewService(schedules.ServiceParams{DB: dbClient, Groups: groupService, Publisher: publisher, Logger: logg})
	must(ctx, logg, "schedule service", err)

	voteService, err := votes.NewService(votes.ServiceParams{DB: dbClient, Groups: groupService, Publisher: publisher, Logger: logg})
	must(ctx, logg, "vote service", err)

	port := env.Get("PORT", cfg.App.Port)
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Params{
			Config:    cfg,
			Logger:    logg,
			Sessions:  sessionManager,
			Limiter:   redisClient,
			Ready:     ready,
			Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Hub:       hub,
			Auth:      authService,
			Register:  registerService,
			Users:     userService,
			Friends:   friendService,
			Groups:    groupService,
			Chats:     chatService,
			Schedules: scheduleService,
			Votes:     voteService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}

// membershipAuthorizer lets a socket join a group, chat or schedule room
// only when the user belongs to it.
func membershipAuthorizer(client *db.Client) *realtime.MembershipAuthorizer {
	return realtime.NewMembershipAuthorizer(
		func(ctx context.Context, userID, roomID uuid.UUID) (bool, error) {
			return groups.NewRepository(client.DB()).IsMember(ctx, roomID, userID)
		},
		func(ctx context.Context, userID, roomID uuid.UUID) (bool, error) {
			return chats.NewRepository(client.DB()).IsMember(ctx, roomID, userID)
		},
		func(ctx context.Context, userID, roomID uuid.UUID) (bool, error) {
			return schedules.NewRepository(client.DB()).IsMember(ctx, roomID, userID)
		},
	)
}

func must(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(ctx, "failed to create "+name, err)
		os.Exit(1)
	}
}
