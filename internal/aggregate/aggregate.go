// Package aggregate holds the per-match event-sourced write model. A Match
// folds persisted domain events back into state and diffs polled snapshots
// against that state to emit new domain facts.
package aggregate

import (
	"log/slog"

	"github.com/pitchside/streaming/internal/domain"
)

// Match is the in-memory aggregate for one match. It is owned by a single
// ingestion task and is not safe for concurrent use.
type Match struct {
	MatchID string

	events      map[int64]*domain.MatchEvent
	uncommitted []domain.DomainEvent
	finished    bool
	logger      *slog.Logger
}

// New creates an empty aggregate for the given match.
func New(matchID string, logger *slog.Logger) *Match {
	return &Match{
		MatchID: matchID,
		events:  make(map[int64]*domain.MatchEvent),
		logger:  logger.With("match_id", matchID),
	}
}

// Apply folds one domain event into state without recording it. Used when
// replaying the persisted log on load.
func (m *Match) Apply(evt domain.DomainEvent) {
	switch evt.Kind {
	case domain.KindGlobalEventAdded:
		ev := evt.Added.MatchEvent
		m.events[ev.FeedEventID] = &ev
		if ev.IsTerminal() {
			m.finished = true
		}
	case domain.KindEventEdited:
		ev, ok := m.events[evt.Edited.FeedEventID]
		if !ok {
			m.logger.Warn("edit for unknown feed event", "feed_event_id", evt.Edited.FeedEventID)
			return
		}
		for name, value := range evt.Edited.Changed {
			known, err := domain.ApplyField(ev, name, value)
			if !known {
				m.logger.Warn("ignoring unknown field in edit", "field", name)
				continue
			}
			if err != nil {
				m.logger.Warn("ignoring uncoercible field in edit", "field", name, "error", err)
			}
		}
		if ev.IsTerminal() {
			m.finished = true
		}
	default:
		m.logger.Warn("ignoring unknown domain event kind", "kind", string(evt.Kind))
	}
}

// IngestSnapshot diffs a polled snapshot against current state and records a
// GlobalEventAdded for each novel feed event and an EventEdited for each
// changed one. Raw events without both identifiers are dropped with a
// warning. The terminal END(period 2) event flips the sticky finished flag
// whether or not it produced a diff.
func (m *Match) IngestSnapshot(raw []domain.RawEvent) {
	for i := range raw {
		r := &raw[i]
		if !r.Valid() {
			m.logger.Warn("dropping malformed raw event, missing id or eventId")
			continue
		}
		next := r.ToMatchEvent()

		if _, seen := m.events[next.FeedEventID]; !seen {
			m.record(domain.NewGlobalEventAdded(m.MatchID, next))
		} else {
			changed, old := domain.DiffEvents(m.events[next.FeedEventID], &next)
			if len(changed) > 0 {
				m.record(domain.NewEventEdited(m.MatchID, next.FeedEventID, changed, old))
			}
		}

		if next.IsTerminal() {
			if !m.finished {
				m.logger.Info("match ended", "feed_event_id", next.FeedEventID)
			}
			m.finished = true
		}
	}
}

func (m *Match) record(evt domain.DomainEvent) {
	m.Apply(evt)
	m.uncommitted = append(m.uncommitted, evt)
}

// Uncommitted returns the domain events recorded since the last clear, in
// emission order. The slice is owned by the aggregate; callers must not
// mutate it.
func (m *Match) Uncommitted() []domain.DomainEvent {
	return m.uncommitted
}

// ClearUncommitted drops the recorded events. Call only after the store
// append succeeded, so a failed append is retried on the next cycle.
func (m *Match) ClearUncommitted() {
	m.uncommitted = nil
}

// Finished reports whether the terminal event has been absorbed. The flag is
// sticky: a later retraction of the END event does not un-finish the match.
func (m *Match) Finished() bool {
	return m.finished
}

// Event returns the current state of one feed event, or nil.
func (m *Match) Event(feedEventID int64) *domain.MatchEvent {
	return m.events[feedEventID]
}

// EventCount returns the number of distinct feed events absorbed.
func (m *Match) EventCount() int {
	return len(m.events)
}
