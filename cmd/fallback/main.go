package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/fallback"
	"github.com/pitchside/streaming/internal/infra"
	"github.com/pitchside/streaming/internal/mapping"
	"github.com/pitchside/streaming/internal/publisher"
	"github.com/pitchside/streaming/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fallback ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		matchID  = flag.String("match-id", "", "external match id of the scraped page")
		pageFile = flag.String("page-file", "", "file holding the scraped page payload")
	)
	flag.Parse()

	if *matchID == "" || *pageFile == "" {
		return fmt.Errorf("-match-id and -page-file are required")
	}

	payload, err := os.ReadFile(*pageFile)
	if err != nil {
		return fmt.Errorf("read page file: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	mappings, err := mapping.Load(ctx, mapping.NewPostgresStore(pool), logger)
	if err != nil {
		return err
	}

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	bus := publisher.NewKafkaPublisher(producer, cfg.KafkaTopic)

	svc := fallback.NewService(
		mappings,
		teamWriter{pool: pool, repo: repository.NewTeamRepository()},
		playerWriter{pool: pool, repo: repository.NewPlayerRepository()},
		lineupWriter{pool: pool, repo: repository.NewLineupRepository()},
		repository.BoundProjectionWriter{DB: pool, Repo: repository.NewProjectionRepository(logger)},
		bus,
		logger,
	)
	return svc.Process(ctx, *matchID, payload)
}

type teamWriter struct {
	pool *pgxpool.Pool
	repo repository.TeamRepository
}

func (w teamWriter) Upsert(ctx context.Context, team domain.Team) error {
	return w.repo.Upsert(ctx, w.pool, team)
}

type playerWriter struct {
	pool *pgxpool.Pool
	repo repository.PlayerRepository
}

func (w playerWriter) Upsert(ctx context.Context, player domain.Player) error {
	return w.repo.Upsert(ctx, w.pool, player)
}

type lineupWriter struct {
	pool *pgxpool.Pool
	repo repository.LineupRepository
}

func (w lineupWriter) Upsert(ctx context.Context, lineup domain.Lineup) error {
	return w.repo.Upsert(ctx, w.pool, lineup)
}
