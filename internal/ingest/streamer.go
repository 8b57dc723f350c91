// Package ingest runs the per-match live streaming loop: poll the feed, diff
// into the aggregate, persist domain events, refresh the read model, and
// publish snapshots downstream.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/pitchside/streaming/internal/aggregate"
	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/eventstore"
	"github.com/pitchside/streaming/internal/feed"
	"github.com/pitchside/streaming/internal/projection"
	"github.com/pitchside/streaming/internal/publisher"
)

// ProjectionWriter persists read-model rows. Bound to a database handle by
// the caller.
type ProjectionWriter interface {
	UpsertMany(ctx context.Context, rows []domain.ProjectionRow) error
}

// MatchStreamer drives the ingestion loop for one match. Each streamer owns
// its aggregate and projector; matches never share mutable state.
type MatchStreamer struct {
	matchID     string
	source      feed.EventSource
	store       eventstore.Store
	projections ProjectionWriter
	bus         publisher.Publisher
	interval    time.Duration
	logger      *slog.Logger

	agg       *aggregate.Match
	projector *projection.Projector

	// Rows whose database upsert failed; merged into the next cycle's batch.
	pending map[int64]struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

// NewMatchStreamer builds a streamer polling every interval.
func NewMatchStreamer(
	matchID string,
	source feed.EventSource,
	store eventstore.Store,
	projections ProjectionWriter,
	bus publisher.Publisher,
	interval time.Duration,
	logger *slog.Logger,
) *MatchStreamer {
	return &MatchStreamer{
		matchID:     matchID,
		source:      source,
		store:       store,
		projections: projections,
		bus:         bus,
		interval:    interval,
		logger:      logger.With("match_id", matchID),
		agg:         aggregate.New(matchID, logger),
		projector:   projection.New(logger),
		pending:     make(map[int64]struct{}),
		sleep:       sleepCtx,
	}
}

// Run streams until the match finishes or ctx is canceled. It first rebuilds
// state from the persisted event log, so a restart mid-match resumes exactly
// where the previous run stopped.
func (s *MatchStreamer) Run(ctx context.Context) error {
	events, err := s.store.Load(ctx, s.matchID)
	if err != nil {
		return err
	}
	for _, evt := range events {
		s.agg.Apply(evt)
		s.projector.Project(evt)
	}
	s.logger.Info("starting live stream", "replayed_events", len(events))

	for !s.agg.Finished() {
		s.cycle(ctx)
		if s.agg.Finished() {
			break
		}
		if err := s.sleep(ctx, s.interval); err != nil {
			return err
		}
	}

	// The terminal signal is sent exactly once per run, after the last
	// snapshot has been persisted and published.
	if err := s.bus.Publish(ctx, s.matchID, publisher.MessageTypeStop, s.projector.Rows(s.matchID)); err != nil {
		s.logger.Error("publishing stop message", "error", err)
	}
	s.logger.Info("match finished, exiting stream")
	return nil
}

// cycle runs one poll iteration. Transient failures are logged and left for
// the next iteration: a failed append keeps the aggregate's uncommitted
// events, a failed upsert parks its rows in the pending set.
func (s *MatchStreamer) cycle(ctx context.Context) {
	snapshot, err := s.source.MatchEvents(ctx, s.matchID)
	if err != nil {
		s.logger.Warn("fetching match events", "error", err)
		return
	}

	s.agg.IngestSnapshot(snapshot.LiveData.Event)

	uncommitted := s.agg.Uncommitted()
	if len(uncommitted) == 0 && len(s.pending) == 0 {
		return
	}

	if len(uncommitted) > 0 {
		if err := s.store.Append(ctx, s.matchID, uncommitted); err != nil {
			s.logger.Error("appending domain events, retrying next cycle",
				"count", len(uncommitted), "error", err)
			return
		}
		for _, evt := range uncommitted {
			s.projector.Project(evt)
			s.pending[evt.FeedEventID()] = struct{}{}
		}
		s.agg.ClearUncommitted()
	}

	rows := s.touchedRows()
	if err := s.projections.UpsertMany(ctx, rows); err != nil {
		// Publishing is skipped too: a snapshot must never reach the bus
		// before its rows are durable.
		s.logger.Error("upserting projections, retrying next cycle",
			"count", len(rows), "error", err)
		return
	}
	s.pending = make(map[int64]struct{})

	if err := s.bus.Publish(ctx, s.matchID, publisher.MessageTypeUpdate, s.projector.Rows(s.matchID)); err != nil {
		s.logger.Warn("publishing update message", "error", err)
	}
}

// touchedRows returns the current read-model rows for every feed event with
// an unflushed change, ordered by feed event id.
func (s *MatchStreamer) touchedRows() []domain.ProjectionRow {
	all := s.projector.Rows(s.matchID)
	rows := make([]domain.ProjectionRow, 0, len(s.pending))
	for _, row := range all {
		if _, ok := s.pending[row.FeedEventID]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
