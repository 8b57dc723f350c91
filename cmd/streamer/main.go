package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitchside/streaming/internal/eventstore"
	"github.com/pitchside/streaming/internal/feed"
	"github.com/pitchside/streaming/internal/infra"
	"github.com/pitchside/streaming/internal/ingest"
	"github.com/pitchside/streaming/internal/publisher"
	"github.com/pitchside/streaming/internal/repository"
	"github.com/pitchside/streaming/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("streamer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	bus := publisher.NewKafkaPublisher(producer, cfg.KafkaTopic)

	client := feed.NewHTTPClient(cfg.FeedBaseURL, cfg.FeedOutletKey, feed.StaticToken(cfg.FeedToken))
	store := eventstore.NewPostgresStore(pool)
	writer := repository.BoundProjectionWriter{
		DB:   pool,
		Repo: repository.NewProjectionRepository(logger),
	}

	stream := func(ctx context.Context, matchID string) error {
		s := ingest.NewMatchStreamer(matchID, client, store, writer, bus, cfg.PollInterval, logger)
		return s.Run(ctx)
	}

	sched := scheduler.New(client, cfg.TournamentID, cfg.MaxConcurrentMatches, stream, logger)
	return sched.Run(ctx)
}
