package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cemlevent54/FileMate/internal/cache"
	"github.com/cemlevent54/FileMate/internal/clock"
	"github.com/cemlevent54/FileMate/internal/config"
	"github.com/cemlevent54/FileMate/internal/database"
	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/handlers"
	"github.com/cemlevent54/FileMate/internal/jobs"
	"github.com/cemlevent54/FileMate/internal/metrics"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/revocation"
	"github.com/cemlevent54/FileMate/internal/security"
	"github.com/cemlevent54/FileMate/internal/server"
	"github.com/cemlevent54/FileMate/internal/service"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the revocation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) error {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return err
		}
	}
	if err := database.SeedRoles(ctx, db.DB); err != nil {
		db.Close()
		return err
	}

	hasher := security.NewPasswordHasher(cfg.Security.PasswordAlgorithm, cfg.Security.BcryptCost)
	if cfg.Admin.Password != "" {
		if err := seedAdmin(ctx, db, cfg.Admin, hasher, logger); err != nil {
			logger.Error().Err(err).Msg("admin seed failed")
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			db.Close()
			return err
		}
	}

	clk := clock.Real{}
	var store revocation.Store = revocation.NewMemoryStore()
	if cfg.Revocation.Backend == "redis" {
		store = revocation.NewRedisStore(redisClient, clk)
	}
	logger.Info().Str("backend", cfg.Revocation.Backend).Msg("revocation store ready")

	codec, err := security.NewTokenCodec(security.TokenConfig{
		AccessSecret:  cfg.Security.JWTAccessSecret,
		RefreshSecret: cfg.Security.JWTRefreshSecret,
		ResetSecret:   cfg.Security.JWTResetSecret,
		AccessTTL:     cfg.Security.JWTAccessTTL,
		RefreshTTL:    cfg.Security.JWTRefreshTTL,
		ResetTTL:      cfg.Security.ResetTokenTTL,
		Issuer:        cfg.Security.Issuer,
	}, clk)
	if err != nil {
		db.Close()
		return err
	}
	registry := revocation.NewRegistry(store, codec, clk)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	publisher := events.New(cfg.Events.Brokers, cfg.Events.Topic, logger)
	users := repository.NewUserRepository(db.DB)
	policy := service.Policy{
		MinPasswordLength:   cfg.Security.MinPasswordLength,
		RotateRefreshTokens: cfg.Security.RotateRefreshTokens,
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, db, redisClient, promRegistry, handlers.Services{
		Auth: service.NewAuthService(service.AuthDeps{
			Users:       users,
			Hasher:      hasher,
			Tokens:      codec,
			Revocations: registry,
			Events:      publisher,
			Metrics:     m,
			Log:         logger,
		}, policy),
		Accounts: service.NewAccountService(users, hasher, publisher, policy, logger),
		Admin:    service.NewAdminService(users, hasher, publisher, policy, logger),
	})
	httpServer := server.NewHTTPServer(cfg, logger, m, handlerSet)

	scheduler := jobs.NewScheduler(registry, cfg.Revocation.SweepInterval, m, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, publisher, db, redisClient)
	return nil
}

func seedAdmin(ctx context.Context, db *database.DB, admin config.AdminConfig, hasher security.PasswordHasher, logger zerolog.Logger) error {
	return database.SeedAdmin(ctx, db.DB, hasher, database.AdminSeed{
		Email:     admin.Email,
		Password:  admin.Password,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
	}, logger)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, publisher events.Publisher, db *database.DB, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("event publisher close error")
	}
	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
