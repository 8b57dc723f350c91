package repository

import (
	"context"
	"fmt"
)

type mappingRepo struct{}

// NewMappingRepository returns a pgx-backed MappingRepository.
func NewMappingRepository() MappingRepository {
	return &mappingRepo{}
}

func (r *mappingRepo) LoadAll(ctx context.Context, db DBTX) (map[string]map[string]string, error) {
	rows, err := db.Query(ctx, `SELECT namespace, external_id, internal_id FROM id_mappings`)
	if err != nil {
		return nil, fmt.Errorf("load id mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var namespace, externalID, internalID string
		if err := rows.Scan(&namespace, &externalID, &internalID); err != nil {
			return nil, fmt.Errorf("scan id mapping row: %w", err)
		}
		ns, ok := out[namespace]
		if !ok {
			ns = make(map[string]string)
			out[namespace] = ns
		}
		ns[externalID] = internalID
	}
	return out, rows.Err()
}

func (r *mappingRepo) Insert(ctx context.Context, db DBTX, namespace, externalID, internalID string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO id_mappings (namespace, external_id, internal_id)
		VALUES ($1, $2, $3)`,
		namespace, externalID, internalID)
	if err != nil {
		return fmt.Errorf("insert %s mapping %s: %w", namespace, externalID, err)
	}
	return nil
}
