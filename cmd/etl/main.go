package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wxjp/jma-warnings-etl/internal/adapter/httpapi"
	"github.com/wxjp/jma-warnings-etl/internal/adapter/jma"
	kafkaadapter "github.com/wxjp/jma-warnings-etl/internal/adapter/kafka"
	"github.com/wxjp/jma-warnings-etl/internal/config"
	"github.com/wxjp/jma-warnings-etl/internal/observability"
	"github.com/wxjp/jma-warnings-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := jma.NewClient(cfg, logger, metrics)

	// Kafka publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.RecordPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(client, publisher, pipeline.Options{
		FeedURL:         cfg.FeedURL,
		HoursThreshold:  cfg.HoursThreshold,
		CacheTTL:        cfg.CacheTTL,
		RefreshInterval: cfg.RefreshInterval,
	}, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the background refresh loop (no-op when REFRESH_INTERVAL is 0).
	go func() {
		if err := p.RunLoop(ctx); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
