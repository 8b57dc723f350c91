// Package mapping translates fallback-provider ids into the internal id
// space. Mappings are loaded once at startup and extended at runtime when
// unknown players appear mid-match.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Namespaces for id translation. Each namespace is an independent mapping
// from external provider id to internal id.
const (
	NamespaceMatch      = "match"
	NamespaceTeam       = "team"
	NamespacePlayer     = "player"
	NamespaceTournament = "tournament"
)

// Minted internal ids are hyphen-stripped UUIDs truncated per namespace.
var mintLengths = map[string]int{
	NamespaceMatch:      26,
	NamespaceTeam:       26,
	NamespacePlayer:     26,
	NamespaceTournament: 24,
}

// Store persists mappings behind the in-memory table.
type Store interface {
	// LoadAll returns every stored mapping grouped by namespace.
	LoadAll(ctx context.Context) (map[string]map[string]string, error)

	// Insert durably records one mapping.
	Insert(ctx context.Context, namespace, externalID, internalID string) error
}

// Mappings is the in-memory id translation table. Lookups take a read lock;
// minting serializes per table so concurrent matches never mint two internal
// ids for the same external id.
type Mappings struct {
	mu     sync.RWMutex
	tables map[string]map[string]string

	store  Store
	logger *slog.Logger
}

// Load builds the table from the store's current contents.
func Load(ctx context.Context, store Store, logger *slog.Logger) (*Mappings, error) {
	tables, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load id mappings: %w", err)
	}
	if tables == nil {
		tables = make(map[string]map[string]string)
	}
	for _, ns := range []string{NamespaceMatch, NamespaceTeam, NamespacePlayer, NamespaceTournament} {
		if tables[ns] == nil {
			tables[ns] = make(map[string]string)
		}
	}
	return &Mappings{tables: tables, store: store, logger: logger}, nil
}

// Lookup returns the internal id for an external id, or "" when unmapped.
func (m *Mappings) Lookup(namespace, externalID string) string {
	if externalID == "" {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[namespace][externalID]
}

// Mint returns the internal id for the external id, creating and persisting
// a new one if absent. The mapping becomes visible to readers only after the
// store insert succeeded, so a persistence failure leaves no dangling entry.
func (m *Mappings) Mint(ctx context.Context, namespace, externalID string) (string, error) {
	if externalID == "" {
		return "", fmt.Errorf("mint %s mapping: empty external id", namespace)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.tables[namespace]
	if !ok {
		return "", fmt.Errorf("mint mapping: unknown namespace %q", namespace)
	}
	if internal, ok := table[externalID]; ok {
		return internal, nil
	}

	internal := mintID(namespace)
	if err := m.store.Insert(ctx, namespace, externalID, internal); err != nil {
		return "", fmt.Errorf("persist %s mapping for %s: %w", namespace, externalID, err)
	}
	table[externalID] = internal

	m.logger.Info("minted id mapping",
		"namespace", namespace, "external_id", externalID, "internal_id", internal)
	return internal, nil
}

func mintID(namespace string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	n := mintLengths[namespace]
	if n == 0 || n > len(hex) {
		n = len(hex)
	}
	return hex[:n]
}
