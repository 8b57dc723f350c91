package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitchside/streaming/internal/eventstore"
	"github.com/pitchside/streaming/internal/infra"
	"github.com/pitchside/streaming/internal/publisher"
	"github.com/pitchside/streaming/internal/replay"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		matchID      = flag.String("match-id", "", "match to replay")
		speed        = flag.Float64("speed", 500, "virtual-to-real time ratio")
		pushInterval = flag.Duration("push-interval", 30*time.Second, "virtual time between published snapshots")
		storeFile    = flag.String("store-file", "", "replay from a file event store instead of Postgres")
	)
	flag.Parse()

	if *matchID == "" {
		return fmt.Errorf("-match-id is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var store eventstore.Store
	if *storeFile != "" {
		store, err = eventstore.NewFileStore(*storeFile)
		if err != nil {
			return fmt.Errorf("open file event store: %w", err)
		}
	} else {
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		store = eventstore.NewPostgresStore(pool)
	}

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	bus := publisher.NewKafkaPublisher(producer, cfg.KafkaTopic)

	r := replay.New(store, bus, *speed, *pushInterval, logger)
	return r.Run(ctx, *matchID)
}
