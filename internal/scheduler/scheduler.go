// Package scheduler turns the tournament fixture calendar into running match
// streams. Streams start shortly before kickoff and a bounded number run
// concurrently.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pitchside/streaming/internal/feed"
)

const (
	// Streams begin this long before kickoff so pre-match events are caught.
	leadTime = 10 * time.Minute

	// Fixtures further out than this are left for a later scheduler run.
	horizon = 7 * 24 * time.Hour

	// A stream for an already-kicked-off match still starts within this
	// window; beyond it the match is treated as over.
	lateStart = 180 * time.Minute
)

// Action says what to do with one fixture.
type Action int

const (
	ActionSkip Action = iota
	ActionStartAt
	ActionStartNow
)

// Decision is the scheduling outcome for one fixture. Malformed marks skips
// caused by a bad calendar entry rather than the scheduling window.
type Decision struct {
	Action    Action
	StartAt   time.Time
	Reason    string
	Malformed bool
}

// Decide applies the scheduling window rules to one fixture at instant now.
func Decide(m feed.ScheduledMatch, now time.Time) Decision {
	kickoff, err := m.Kickoff()
	if err != nil {
		return Decision{Action: ActionSkip, Reason: fmt.Sprintf("unparseable kickoff: %v", err), Malformed: true}
	}
	if kickoff.After(now.Add(horizon)) {
		return Decision{Action: ActionSkip, Reason: "kickoff beyond scheduling horizon"}
	}

	streamStart := kickoff.Add(-leadTime)
	if streamStart.After(now) {
		return Decision{Action: ActionStartAt, StartAt: streamStart}
	}
	// Late start: the match may be underway, catch up from the event log.
	if !now.After(kickoff.Add(lateStart)) {
		return Decision{Action: ActionStartNow}
	}
	return Decision{Action: ActionSkip, Reason: "kickoff too far in the past"}
}

// StreamFunc runs a live stream for one match until it finishes.
type StreamFunc func(ctx context.Context, matchID string) error

// Scheduler fetches the calendar and launches match streams.
type Scheduler struct {
	client       feed.Client
	tournamentID string
	stream       StreamFunc
	sem          *semaphore.Weighted
	logger       *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a scheduler allowing at most maxConcurrent simultaneous streams.
func New(client feed.Client, tournamentID string, maxConcurrent int64, stream StreamFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		client:       client,
		tournamentID: tournamentID,
		stream:       stream,
		sem:          semaphore.NewWeighted(maxConcurrent),
		logger:       logger,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// Run fetches the fixture calendar once, launches a goroutine per schedulable
// match, and blocks until every launched stream has returned or ctx is
// canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	schedule, err := s.client.TournamentSchedule(ctx, s.tournamentID)
	if err != nil {
		return fmt.Errorf("fetch tournament schedule: %w", err)
	}

	now := s.now().UTC()
	var wg sync.WaitGroup
	scheduled := 0

	for _, day := range schedule.MatchDate {
		for _, m := range day.Match {
			decision := Decide(m, now)
			switch decision.Action {
			case ActionSkip:
				if decision.Malformed {
					s.logger.Warn("skipping fixture", "match_id", m.ID, "reason", decision.Reason)
				} else {
					s.logger.Info("skipping fixture", "match_id", m.ID, "reason", decision.Reason)
				}
				continue
			case ActionStartAt:
				s.logger.Info("scheduling stream", "match_id", m.ID, "start_at", decision.StartAt)
			case ActionStartNow:
				s.logger.Info("starting stream immediately", "match_id", m.ID)
			}

			scheduled++
			wg.Add(1)
			go func(m feed.ScheduledMatch, d Decision) {
				defer wg.Done()
				s.runOne(ctx, m.ID, d)
			}(m, decision)
		}
	}

	s.logger.Info("scheduler running", "scheduled_matches", scheduled)
	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) runOne(ctx context.Context, matchID string, d Decision) {
	if d.Action == ActionStartAt {
		if err := s.sleep(ctx, d.StartAt.Sub(s.now().UTC())); err != nil {
			return
		}
	}

	// The concurrency slot is taken at stream start, not at scheduling time,
	// so waiting fixtures do not starve running ones.
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	s.logger.Info("stream starting", "match_id", matchID)
	if err := s.stream(ctx, matchID); err != nil {
		s.logger.Error("stream failed", "match_id", matchID, "error", err)
		return
	}
	s.logger.Info("stream finished", "match_id", matchID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
