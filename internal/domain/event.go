package domain

import (
	"time"

	"github.com/google/uuid"
)

// Feed event type ids the pipeline cares about.
const (
	TypeIDEnd = 30 // END event; with period 2 it terminates the match

	PeriodFirstHalf  = 1
	PeriodSecondHalf = 2
)

// Qualifier is a single (qualifierId, value) attribute attached to a feed
// event. Value is nil for flag-style qualifiers that carry no payload.
type Qualifier struct {
	QualifierID int     `json:"qualifier_id"`
	Value       *string `json:"value,omitempty"`
}

// QualifiersEqual compares two qualifier lists as multisets of
// (qualifier_id, value) pairs. Ordering is not significant: feeds re-emit the
// same qualifiers in arbitrary order and that must not count as an edit.
func QualifiersEqual(a, b []Qualifier) bool {
	if len(a) != len(b) {
		return false
	}
	type key struct {
		id     int
		val    string
		hasVal bool
	}
	counts := make(map[key]int, len(a))
	for _, q := range a {
		k := key{id: q.QualifierID}
		if q.Value != nil {
			k.val, k.hasVal = *q.Value, true
		}
		counts[k]++
	}
	for _, q := range b {
		k := key{id: q.QualifierID}
		if q.Value != nil {
			k.val, k.hasVal = *q.Value, true
		}
		counts[k]--
		if counts[k] < 0 {
			return false
		}
	}
	return true
}

// MatchEvent is the read-model shape of a single feed event. FeedEventID is
// the provider's global id ("id" in the feed); LocalEventID is the
// provider-local sequence ("eventId"). Both are immutable identifiers, every
// other field may be edited by later snapshots.
type MatchEvent struct {
	FeedEventID  int64       `json:"event_id"`
	LocalEventID int32       `json:"local_event_id"`
	TypeID       int         `json:"type_id"`
	PeriodID     int         `json:"period_id"`
	TimeMin      int         `json:"time_min"`
	TimeSec      int         `json:"time_sec"`
	ContestantID string      `json:"contestant_id"`
	PlayerID     string      `json:"player_id"`
	PlayerName   string      `json:"player_name"`
	Outcome      *int        `json:"outcome"`
	X            *float64    `json:"x"`
	Y            *float64    `json:"y"`
	Qualifiers   []Qualifier `json:"qualifiers"`
	TimeStamp    *string     `json:"time_stamp"`
	LastModified *string     `json:"last_modified"`
}

// IsTerminal reports whether this event marks the end of the match.
func (e *MatchEvent) IsTerminal() bool {
	return e.TypeID == TypeIDEnd && e.PeriodID == PeriodSecondHalf
}

// EventKind discriminates domain event variants in the store.
type EventKind string

const (
	KindGlobalEventAdded EventKind = "GlobalEventAdded"
	KindEventEdited      EventKind = "EventEdited"
)

// GlobalEventAdded records the first observation of a feed event. It carries
// every MatchEvent field verbatim as seen at insertion.
type GlobalEventAdded struct {
	MatchEvent
}

// EventEdited records a per-field diff against the previously absorbed state
// of a feed event. Every key in Changed also appears in Old with the
// pre-edit value.
type EventEdited struct {
	FeedEventID int64          `json:"feed_event_id"`
	Changed     map[string]any `json:"changed_fields"`
	Old         map[string]any `json:"old_fields"`
}

// DomainEvent is the immutable fact appended to the event store. Exactly one
// of Added/Edited is set, selected by Kind.
type DomainEvent struct {
	DomainEventID uuid.UUID
	AggregateID   string
	Kind          EventKind
	OccurredOn    time.Time

	Added  *GlobalEventAdded
	Edited *EventEdited
}

// FeedEventID returns the feed event this domain event concerns.
func (d *DomainEvent) FeedEventID() int64 {
	switch d.Kind {
	case KindGlobalEventAdded:
		return d.Added.FeedEventID
	case KindEventEdited:
		return d.Edited.FeedEventID
	}
	return 0
}

// NewGlobalEventAdded builds the insertion fact for a newly observed event.
func NewGlobalEventAdded(matchID string, ev MatchEvent) DomainEvent {
	return DomainEvent{
		DomainEventID: uuid.New(),
		AggregateID:   matchID,
		Kind:          KindGlobalEventAdded,
		OccurredOn:    time.Now().UTC(),
		Added:         &GlobalEventAdded{MatchEvent: ev},
	}
}

// NewEventEdited builds the edit fact for a changed event.
func NewEventEdited(matchID string, feedEventID int64, changed, old map[string]any) DomainEvent {
	return DomainEvent{
		DomainEventID: uuid.New(),
		AggregateID:   matchID,
		Kind:          KindEventEdited,
		OccurredOn:    time.Now().UTC(),
		Edited: &EventEdited{
			FeedEventID: feedEventID,
			Changed:     changed,
			Old:         old,
		},
	}
}

// ProjectionRow is a MatchEvent scoped to its match, as stored in the
// projection table and published on the bus.
type ProjectionRow struct {
	MatchID string `json:"match_id"`
	MatchEvent
}
