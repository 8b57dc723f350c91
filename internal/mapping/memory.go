package mapping

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]map[string]string
}

// NewMemoryStore returns an empty MemoryStore, optionally seeded.
func NewMemoryStore(seed map[string]map[string]string) *MemoryStore {
	tables := make(map[string]map[string]string)
	for ns, entries := range seed {
		tables[ns] = make(map[string]string, len(entries))
		for k, v := range entries {
			tables[ns][k] = v
		}
	}
	return &MemoryStore{tables: tables}
}

func (s *MemoryStore) LoadAll(_ context.Context) (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]string, len(s.tables))
	for ns, entries := range s.tables {
		out[ns] = make(map[string]string, len(entries))
		for k, v := range entries {
			out[ns][k] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, namespace, externalID, internalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[namespace] == nil {
		s.tables[namespace] = make(map[string]string)
	}
	s.tables[namespace][externalID] = internalID
	return nil
}
