package mapping

import (
	"context"

	"github.com/pitchside/streaming/internal/repository"
)

// PostgresStore adapts the id_mappings repository to the Store interface.
type PostgresStore struct {
	db   repository.DBTX
	repo repository.MappingRepository
}

// NewPostgresStore returns a Store backed by the id_mappings table.
func NewPostgresStore(db repository.DBTX) *PostgresStore {
	return &PostgresStore{db: db, repo: repository.NewMappingRepository()}
}

func (s *PostgresStore) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	return s.repo.LoadAll(ctx, s.db)
}

func (s *PostgresStore) Insert(ctx context.Context, namespace, externalID, internalID string) error {
	return s.repo.Insert(ctx, s.db, namespace, externalID, internalID)
}
