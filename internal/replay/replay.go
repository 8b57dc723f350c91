// Package replay re-streams a finished match from its persisted event log
// under a virtual clock, so consumers can be exercised at faster-than-live
// speed.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/eventstore"
	"github.com/pitchside/streaming/internal/projection"
	"github.com/pitchside/streaming/internal/publisher"
)

// Feed updates arriving later than this after the first event are flushed in
// one final batch; matches never run longer.
const virtualCutoff = 2 * time.Hour

// Replayer streams a match's read model from the event log.
type Replayer struct {
	store  eventstore.Store
	bus    publisher.Publisher
	logger *slog.Logger

	// Speed is the virtual-to-real time ratio; 500 means five hundred
	// virtual seconds per real second.
	Speed float64

	// PushInterval is the virtual time between published snapshots.
	PushInterval time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a replayer with the given speed and push interval.
func New(store eventstore.Store, bus publisher.Publisher, speed float64, pushInterval time.Duration, logger *slog.Logger) *Replayer {
	return &Replayer{
		store:        store,
		bus:          bus,
		logger:       logger,
		Speed:        speed,
		PushInterval: pushInterval,
		sleep:        sleepCtx,
	}
}

// Run replays the whole log for a match. The virtual clock starts at the
// first event's occurred_on; every push interval the events whose occurred_on
// has been reached are folded into the read model and the full snapshot is
// published. The final message carries type "stop".
func (r *Replayer) Run(ctx context.Context, matchID string) error {
	if r.Speed <= 0 {
		return fmt.Errorf("replay speed must be positive, got %v", r.Speed)
	}
	events, err := r.store.Load(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load events for replay of %s: %w", matchID, err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no events recorded for match %s", matchID)
	}

	projector := projection.New(r.logger)
	virtualNow := events[0].OccurredOn
	remaining := events

	r.logger.Info("starting replay",
		"match_id", matchID, "events", len(events),
		"speed", r.Speed, "push_interval", r.PushInterval)

	for len(remaining) > 0 {
		realSleep := time.Duration(float64(r.PushInterval) / r.Speed)
		if err := r.sleep(ctx, realSleep); err != nil {
			return err
		}
		virtualNow = virtualNow.Add(r.PushInterval)

		// Updates can trail the match by hours; once past the cutoff the
		// remainder is flushed in one batch instead of dripping forever.
		var batch []domain.DomainEvent
		if virtualNow.Sub(events[0].OccurredOn) >= virtualCutoff {
			batch, remaining = remaining, nil
		} else {
			cut := len(remaining)
			for i, evt := range remaining {
				if evt.OccurredOn.After(virtualNow) {
					cut = i
					break
				}
			}
			batch, remaining = remaining[:cut], remaining[cut:]
		}

		if len(batch) == 0 {
			continue
		}
		for _, evt := range batch {
			projector.Project(evt)
		}

		messageType := publisher.MessageTypeUpdate
		if len(remaining) == 0 {
			messageType = publisher.MessageTypeStop
		}
		if err := r.bus.Publish(ctx, matchID, messageType, projector.Rows(matchID)); err != nil {
			return fmt.Errorf("publish replay %s for match %s: %w", messageType, matchID, err)
		}
	}

	r.logger.Info("replay finished", "match_id", matchID)
	return nil
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
