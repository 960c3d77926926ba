package app

import (
	"context"
	"log"

	"citywatch/alertmedia/internal/config"
	"citywatch/alertmedia/internal/handler"
	"citywatch/alertmedia/internal/pkg/auth"
	"citywatch/alertmedia/internal/repository"
	"citywatch/alertmedia/internal/service"
	"citywatch/alertmedia/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	storage, err := service.NewS3Storage(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init s3 storage", zap.Error(err))
	}

	// Недоступность внешних систем на старте не фатальна: transfer вернёт
	// retryable ошибку, dispatch уйдёт в degraded.
	if err := storage.HealthCheck(context.Background()); err != nil {
		logger.Warn("s3 storage is not reachable", zap.Error(err))
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis is not reachable, dispatch will degrade", zap.Error(err))
	}

	signer := auth.NewTokenSigner(cfg.UploadTokenSecret, cfg.UploadTokenTTL())
	hub := ws.NewHub()

	alertRepo := repository.NewAlertRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	derivativeRepo := repository.NewDerivativeRepository(db)
	transcriptionRepo := repository.NewTranscriptionRepository(db)
	jobQueue := repository.NewRedisJobQueue(rdb)

	dispatcher := service.NewJobDispatcher(jobQueue, cfg.EnqueueTimeout(), logger)
	intakeService := service.NewIntakeService(alertRepo, mediaRepo, storage, dispatcher, signer, hub, logger)
	transcriptionService := service.NewTranscriptionService(mediaRepo, transcriptionRepo, logger)
	derivativeService := service.NewDerivativeService(mediaRepo, derivativeRepo, logger)

	mediaHandler := handler.NewMediaHandler(intakeService)
	transcriptionHandler := handler.NewTranscriptionHandler(transcriptionService)
	workerHandler := handler.NewWorkerHandler(derivativeService, transcriptionService)

	server := NewServer(mediaHandler, transcriptionHandler, workerHandler, hub)
	server.Run(cfg.ServerPort)
}
