// Package repository holds pgx-backed persistence for the read model and
// reference data. Repositories are stateless; the database handle is passed
// per call so the same code runs against a pool or an open transaction.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pitchside/streaming/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxBeginner starts transactions; satisfied by pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ProjectionRepository provides access to the match_projections read model.
type ProjectionRepository interface {
	// UpsertMany writes the batch in one transaction, inserting new rows and
	// overwriting existing ones keyed by feed event id. Duplicate feed event
	// ids within a batch keep the first occurrence.
	UpsertMany(ctx context.Context, db TxBeginner, rows []domain.ProjectionRow) error

	// LoadByMatch returns all projected events for a match, ordered by feed
	// event id.
	LoadByMatch(ctx context.Context, db DBTX, matchID string) ([]domain.ProjectionRow, error)

	// LoadByIDs returns the projected events with the given feed event ids,
	// ordered by feed event id. Missing ids are silently absent.
	LoadByIDs(ctx context.Context, db DBTX, eventIDs []int64) ([]domain.ProjectionRow, error)
}

// TeamRepository provides access to the teams reference table.
type TeamRepository interface {
	Upsert(ctx context.Context, db DBTX, team domain.Team) error
}

// PlayerRepository provides access to the players reference table.
type PlayerRepository interface {
	Upsert(ctx context.Context, db DBTX, player domain.Player) error
}

// LineupRepository provides access to starting lineups, keyed by match and
// contestant.
type LineupRepository interface {
	Upsert(ctx context.Context, db DBTX, lineup domain.Lineup) error
	LoadByMatch(ctx context.Context, db DBTX, matchID string) ([]domain.Lineup, error)
}

// MappingRepository persists external-to-internal id mappings per namespace.
type MappingRepository interface {
	// LoadAll returns every stored mapping grouped by namespace.
	LoadAll(ctx context.Context, db DBTX) (map[string]map[string]string, error)

	// Insert stores one mapping. Inserting the same (namespace, external_id)
	// twice is a conflict error.
	Insert(ctx context.Context, db DBTX, namespace, externalID, internalID string) error
}
