package main

import (
	"context"
	"fmt"
	"os"

	"complaint-service/internal/auth"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/metrics"
	"complaint-service/internal/ratelimit"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
	"complaint-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	metrics.Init()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	contentStore, err := storage.New(cfg.Storage, database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise attachment storage")
	}

	complaintRepo := repository.NewComplaintRepository(database)
	userRepo := repository.NewUserRepository(database)
	zoneRepo := repository.NewZoneRepository(database)
	sequenceRepo := repository.NewSequenceRepository(database)

	complaintService := service.NewComplaintService(
		complaintRepo,
		userRepo,
		zoneRepo,
		sequenceRepo,
		contentStore,
		cfg.Complaints,
		log,
	)
	zoneService := service.NewZoneService(zoneRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	limiter := ratelimit.New(cfg.RateLimit, cfg.Redis)

	healthCheck := func(ctx context.Context) error { return db.HealthCheck(ctx, database) }
	handler := httphandler.NewHandler(complaintService, zoneService, healthCheck, cfg.Complaints.MaxAttachmentsPerAction, log)
	router := httphandler.NewRouter(
		handler,
		middleware.Auth(tokenParser),
		middleware.RateLimit(limiter, log),
		cfg.Environment,
		log,
	)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().
		Str("addr", addr).
		Str("storage", cfg.Storage.Backend).
		Msg("starting complaint service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
