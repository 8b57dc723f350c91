// Package eventstore persists the append-only domain-event log. Two
// implementations share the Store contract: a Postgres store for production
// and a file store for replay harnesses and tests.
package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/streaming/internal/domain"
)

// Store is the append-only domain-event log for match aggregates.
type Store interface {
	// Load returns every domain event for the match in strict ascending
	// occurred_on order, ties broken by insertion order.
	Load(ctx context.Context, matchID string) ([]domain.DomainEvent, error)

	// Append atomically persists the batch: either all events become
	// visible or none. Events are immutable once appended.
	Append(ctx context.Context, matchID string, events []domain.DomainEvent) error

	// Delete removes the match's log. Idempotent; used by replay harnesses
	// and tests only.
	Delete(ctx context.Context, matchID string) error
}

// marshalPayload serializes the variant-specific part of a domain event.
func marshalPayload(evt domain.DomainEvent) ([]byte, error) {
	switch evt.Kind {
	case domain.KindGlobalEventAdded:
		return json.Marshal(evt.Added)
	case domain.KindEventEdited:
		return json.Marshal(evt.Edited)
	}
	return nil, fmt.Errorf("unknown event kind %q", evt.Kind)
}

// unmarshalEvent rebuilds a domain event from its stored envelope columns.
func unmarshalEvent(id uuid.UUID, aggregateID, eventType string, occurredOn time.Time, payload []byte) (domain.DomainEvent, error) {
	evt := domain.DomainEvent{
		DomainEventID: id,
		AggregateID:   aggregateID,
		Kind:          domain.EventKind(eventType),
		OccurredOn:    occurredOn,
	}
	switch evt.Kind {
	case domain.KindGlobalEventAdded:
		var added domain.GlobalEventAdded
		if err := json.Unmarshal(payload, &added); err != nil {
			return domain.DomainEvent{}, fmt.Errorf("decode GlobalEventAdded payload: %w", err)
		}
		evt.Added = &added
	case domain.KindEventEdited:
		var edited domain.EventEdited
		if err := json.Unmarshal(payload, &edited); err != nil {
			return domain.DomainEvent{}, fmt.Errorf("decode EventEdited payload: %w", err)
		}
		evt.Edited = &edited
	default:
		return domain.DomainEvent{}, fmt.Errorf("unknown event type %q", eventType)
	}
	return evt, nil
}
