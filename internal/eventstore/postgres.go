package eventstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitchside/streaming/internal/domain"
)

// PostgresStore persists domain events in the domain_events table. The seq
// column breaks ordering ties between events sharing an occurred_on stamp.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a pgx-backed Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context, matchID string) ([]domain.DomainEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT domain_event_id, event_type, occurred_on, payload
		FROM domain_events
		WHERE aggregate_id = $1
		ORDER BY occurred_on ASC, seq ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load events for match %s: %w", matchID, err)
	}
	defer rows.Close()

	var events []domain.DomainEvent
	for rows.Next() {
		var (
			rec     fileRecord
			payload []byte
		)
		if err := rows.Scan(&rec.DomainEventID, &rec.EventType, &rec.OccurredOn, &payload); err != nil {
			return nil, fmt.Errorf("scan domain event row: %w", err)
		}
		evt, err := unmarshalEvent(rec.DomainEventID, matchID, rec.EventType, rec.OccurredOn, payload)
		if err != nil {
			return nil, fmt.Errorf("load events for match %s: %w", matchID, err)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, matchID string, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, evt := range events {
		payload, err := marshalPayload(evt)
		if err != nil {
			return fmt.Errorf("append events for match %s: %w", matchID, err)
		}
		batch.Queue(`
			INSERT INTO domain_events (domain_event_id, aggregate_id, event_type, occurred_on, payload)
			VALUES ($1, $2, $3, $4, $5)`,
			evt.DomainEventID, matchID, string(evt.Kind), evt.OccurredOn, payload)
	}

	results := tx.SendBatch(ctx, batch)
	for range events {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert domain event: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close append batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, matchID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM domain_events WHERE aggregate_id = $1`, matchID); err != nil {
		return fmt.Errorf("delete events for match %s: %w", matchID, err)
	}
	return nil
}
