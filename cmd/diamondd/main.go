package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/api"
	"github.com/mimir-aip/diamond-price/pkg/config"
	"github.com/mimir-aip/diamond-price/pkg/logger"
	"github.com/mimir-aip/diamond-price/pkg/metadatastore"
	"github.com/mimir-aip/diamond-price/pkg/metric"
	"github.com/mimir-aip/diamond-price/pkg/mlmodel"
	"github.com/mimir-aip/diamond-price/pkg/mlmodel/training"
	"github.com/mimir-aip/diamond-price/pkg/scheduler"
)

const (
	refreshTimeout  = 10 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := logger.Init(cfg.AppName, cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	log.Info().Str("environment", cfg.Environment).Msg("Starting diamond price service")

	if err := metric.Init(metric.Config{
		Enabled:     cfg.MetricsEnabled,
		Address:     cfg.MetricsAddress,
		AppName:     cfg.AppName,
		Environment: cfg.Environment,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	defer metric.Close()

	// Prediction log lives for the lifetime of the process
	store, err := metadatastore.NewSQLiteStore(metadatastore.InMemoryDSN, cfg.PredictionLogSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize prediction log")
	}
	defer store.Close()

	opts := training.DefaultOptions()
	opts.CacheMB = cfg.KernelCacheMB
	opts.MaxIterations = cfg.MaxIterations

	service := mlmodel.NewService(cfg.DataPath, opts, store)
	if err := service.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Str("data_path", cfg.DataPath).Msg("Failed to build model")
	}

	refresh, err := scheduler.NewService(service, cfg.RefreshSchedule, refreshTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize refresh scheduler")
	}
	refresh.Start()
	defer refresh.Stop()

	server := api.NewServer(service, refresh, cfg.Port)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down diamond price service")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
}
