package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/99minutos/task-manager/internal/api"
	"github.com/99minutos/task-manager/internal/core/service"
	mongodb "github.com/99minutos/task-manager/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/task-manager/internal/infrastructure/db/redis"
	httpserver "github.com/99minutos/task-manager/internal/infrastructure/http"
	"github.com/99minutos/task-manager/internal/infrastructure/http/handlers"
	"github.com/99minutos/task-manager/internal/infrastructure/queue"
	"github.com/99minutos/task-manager/internal/infrastructure/security"
	"github.com/99minutos/task-manager/internal/infrastructure/token"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Connects to MongoDB and Redis, ensures indexes, starts the activity
workers and serves the HTTP API until SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Core ---
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshSecret: cfg.Auth.RefreshSecret,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        serviceName,
	})

	authOpts := []service.AuthOption{service.WithAdminEmails(cfg.Auth.AdminEmails...)}
	if cfg.Auth.RevokeOnRefresh {
		authOpts = append(authOpts, service.WithRevocationStore(redisdb.NewRevocationStore(rdb)))
	}
	authSvc := service.NewAuthService(
		mongodb.NewUserRepository(db),
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		issuer,
		log.With().Str("component", "auth").Logger(),
		authOpts...,
	)

	activityRepo := mongodb.NewActivityRepository(db)
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, activityRepo, log.With().Str("component", "activity").Logger())
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	taskSvc := service.NewTaskService(
		mongodb.NewTaskRepository(db),
		dispatcher,
		log.With().Str("component", "tasks").Logger(),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AuthService: authSvc,
		TaskService: taskSvc,
		Tokens:      issuer,
		Activity:    activityRepo,
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"mongodb": handlers.MongoPinger(db),
			"redis":   handlers.RedisPinger(rdb),
		}),
		Logger: log,
	})

	return httpserver.Serve(ctx, e, ":"+cfg.Port, shutdownTimeout, log)
}
