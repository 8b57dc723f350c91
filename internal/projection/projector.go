// Package projection maintains the in-memory read model: the current value
// of every feed event per match, derived purely from the domain-event log.
package projection

import (
	"log/slog"
	"sort"

	"github.com/pitchside/streaming/internal/domain"
)

// Projector folds domain events into per-match read models. Replaying the
// same event prefix always yields the same state.
type Projector struct {
	states map[string]map[int64]*domain.MatchEvent
	logger *slog.Logger
}

// New creates an empty projector.
func New(logger *slog.Logger) *Projector {
	return &Projector{
		states: make(map[string]map[int64]*domain.MatchEvent),
		logger: logger,
	}
}

// Project applies one domain event to the read model. Unknown fields inside
// an edit are ignored with a warning so newer event payloads replay on older
// code.
func (p *Projector) Project(evt domain.DomainEvent) {
	state, ok := p.states[evt.AggregateID]
	if !ok {
		state = make(map[int64]*domain.MatchEvent)
		p.states[evt.AggregateID] = state
	}

	switch evt.Kind {
	case domain.KindGlobalEventAdded:
		ev := evt.Added.MatchEvent
		state[ev.FeedEventID] = &ev
	case domain.KindEventEdited:
		ev, ok := state[evt.Edited.FeedEventID]
		if !ok {
			p.logger.Warn("edit for unprojected feed event",
				"match_id", evt.AggregateID, "feed_event_id", evt.Edited.FeedEventID)
			return
		}
		for name, value := range evt.Edited.Changed {
			known, err := domain.ApplyField(ev, name, value)
			if !known {
				p.logger.Warn("ignoring unknown field in edit",
					"match_id", evt.AggregateID, "field", name)
				continue
			}
			if err != nil {
				p.logger.Warn("ignoring uncoercible field in edit",
					"match_id", evt.AggregateID, "field", name, "error", err)
			}
		}
	default:
		p.logger.Warn("ignoring unknown domain event kind", "kind", string(evt.Kind))
	}
}

// MatchState returns the current events-by-id mapping for a match. The
// returned map is live; callers must not mutate it.
func (p *Projector) MatchState(matchID string) map[int64]*domain.MatchEvent {
	return p.states[matchID]
}

// Rows snapshots the current read model for a match as projection rows,
// ordered by feed event id for stable output.
func (p *Projector) Rows(matchID string) []domain.ProjectionRow {
	state := p.states[matchID]
	rows := make([]domain.ProjectionRow, 0, len(state))
	for _, ev := range state {
		rows = append(rows, domain.ProjectionRow{MatchID: matchID, MatchEvent: *ev})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FeedEventID < rows[j].FeedEventID })
	return rows
}
