package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samuel/go-metrics/metrics"

	"github.com/carebridge/carebridge/internal/config"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/extract"
	"github.com/carebridge/carebridge/internal/mongodb"
	"github.com/carebridge/carebridge/internal/rabbit"
	"github.com/carebridge/carebridge/internal/rediscache"
	"github.com/carebridge/carebridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if cfg.OpenAI.APIKey == "" {
		logger.Error("CAREBRIDGE_OPENAI_API_KEY must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongo, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongo.Close(context.Background())

	cache, err := rediscache.New(ctx, rediscache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	queue, err := rabbit.Dial(cfg.Rabbit.URL, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	schedulesSvc := schedule.NewService(mongodb.NewScheduleStore(mongo), cache, logger)
	processor := steps.NewProcessor(mongodb.NewStepStore(mongo), schedulesSvc, logger)
	extractor := extract.New(extract.Config{
		APIKey:            cfg.OpenAI.APIKey,
		Model:             cfg.OpenAI.Model,
		RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
	}, logger)

	registry := metrics.NewRegistry()
	consumer := worker.NewConsumer(extractor, processor, queue, rabbit.ActionsQueue, registry, logger)

	deliveries, err := queue.Consume(rabbit.NotesQueue)
	if err != nil {
		logger.Error("failed to start consuming", "queue", rabbit.NotesQueue, "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	go logStats(ctx, registry, logger)

	if err := consumer.Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
}

// logStats dumps the counters once a minute so throughput shows up in
// the logs without a metrics backend.
func logStats(ctx context.Context, registry metrics.Registry, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = registry.Do(func(name string, value interface{}) error {
				if counter, ok := value.(*metrics.Counter); ok {
					logger.Info("worker stat", "name", name, "count", counter.Count())
				}
				return nil
			})
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
