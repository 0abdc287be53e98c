package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskmgr/task-manager-api/internal/api"
	"github.com/taskmgr/task-manager-api/internal/core/cache"
	"github.com/taskmgr/task-manager-api/internal/core/service"
	"github.com/taskmgr/task-manager-api/internal/infrastructure/broadcast"
	"github.com/taskmgr/task-manager-api/internal/infrastructure/config"
	mongodb "github.com/taskmgr/task-manager-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskmgr/task-manager-api/internal/infrastructure/db/redis"
	"github.com/taskmgr/task-manager-api/internal/infrastructure/storage"
	"github.com/taskmgr/task-manager-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	blobs, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload directory unavailable")
	}

	// Repositories.
	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewTokenRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	commentRepo := mongodb.NewCommentRepository(db)
	attachmentRepo := mongodb.NewAttachmentRepository(db)

	// Broadcast pipeline.
	publisher := redisdb.NewEventPublisher(rdb, cfg.Redis.EventChannel)
	dispatcher := broadcast.NewDispatcher(cfg.BroadcastWorkers, publisher, log)
	dispatcher.Start(ctx)

	// Services.
	taskCache := cache.New(cfg.CacheTTL)
	tokenService := service.NewTokenService(tokenRepo, userRepo, cfg.TokenTTL, log)
	userService := service.NewUserService(userRepo, taskRepo, tokenService, log)
	taskService := service.NewTaskService(taskRepo, commentRepo, attachmentRepo, userRepo, blobs, taskCache, dispatcher, log)
	commentService := service.NewCommentService(commentRepo, taskRepo, userRepo, dispatcher, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, taskRepo, blobs, log)

	e := api.NewRouter(api.Deps{
		Users:       userService,
		Tokens:      tokenService,
		Tasks:       taskService,
		Comments:    commentService,
		Attachments: attachmentService,
		Mongo:       db,
		Redis:       rdb,
		Log:         log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("task manager api started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
