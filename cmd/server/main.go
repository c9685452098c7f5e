package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/yatis-tahmin-server/internal/api"
	"github.com/yatis-tahmin-server/internal/cache"
	"github.com/yatis-tahmin-server/internal/catalog"
	"github.com/yatis-tahmin-server/internal/config"
	"github.com/yatis-tahmin-server/internal/domain"
	"github.com/yatis-tahmin-server/internal/model"
	"github.com/yatis-tahmin-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	// The catalog is loaded eagerly so the first request never pays for the
	// workbook read; loading cannot fail, it degrades to defaults.
	loader := catalog.NewLoader(logger, &cfg.Data)
	loader.Catalog()

	predictionCache, err := cache.New(logger, &cfg.Cache)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create prediction cache")
	}

	modelClient := model.NewClient(logger, cfg.Model)
	predictor := service.NewPredictor(logger, modelClient, predictionCache)

	server := api.NewServer(logger, &cfg.Server, loader, predictor)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting length-of-stay prediction server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
