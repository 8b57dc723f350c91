package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchside/streaming/internal/domain"
)

// fileRecord is the on-disk envelope for one domain event.
type fileRecord struct {
	DomainEventID uuid.UUID       `json:"domain_event_id"`
	EventType     string          `json:"event_type"`
	OccurredOn    time.Time       `json:"occurred_on"`
	Payload       json.RawMessage `json:"payload"`
}

// FileStore is a Store backed by a single JSON file mapping aggregate id to
// its ordered event list. It suits replay harnesses and local development;
// the whole file is rewritten on every append.
type FileStore struct {
	path string

	mu   sync.Mutex
	logs map[string][]fileRecord
}

// NewFileStore opens or creates the store file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, logs: make(map[string][]fileRecord)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.logs); err != nil {
			return nil, fmt.Errorf("decode event store file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Load(_ context.Context, matchID string) ([]domain.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.logs[matchID]
	events := make([]domain.DomainEvent, 0, len(records))
	for _, rec := range records {
		evt, err := unmarshalEvent(rec.DomainEventID, matchID, rec.EventType, rec.OccurredOn, rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("load events for match %s: %w", matchID, err)
		}
		events = append(events, evt)
	}
	return events, nil
}

func (s *FileStore) Append(_ context.Context, matchID string, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appended := make([]fileRecord, 0, len(events))
	for _, evt := range events {
		payload, err := marshalPayload(evt)
		if err != nil {
			return fmt.Errorf("append events for match %s: %w", matchID, err)
		}
		appended = append(appended, fileRecord{
			DomainEventID: evt.DomainEventID,
			EventType:     string(evt.Kind),
			OccurredOn:    evt.OccurredOn,
			Payload:       payload,
		})
	}

	s.logs[matchID] = append(s.logs[matchID], appended...)
	if err := s.flush(); err != nil {
		// Roll back the in-memory log so a retry re-appends the batch.
		s.logs[matchID] = s.logs[matchID][:len(s.logs[matchID])-len(appended)]
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[matchID]; !ok {
		return nil
	}
	delete(s.logs, matchID)
	return s.flush()
}

// flush rewrites the backing file via a temp file and rename so a crash
// mid-write never leaves a truncated store. Caller holds s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.logs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".events-*.json")
	if err != nil {
		return fmt.Errorf("write event store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write event store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write event store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write event store: %w", err)
	}
	return nil
}
