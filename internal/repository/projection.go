package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pitchside/streaming/internal/domain"
)

type projectionRepo struct {
	logger *slog.Logger
}

// NewProjectionRepository returns a pgx-backed ProjectionRepository.
func NewProjectionRepository(logger *slog.Logger) ProjectionRepository {
	return &projectionRepo{logger: logger}
}

// BoundProjectionWriter binds the repository to a database handle so callers
// that only write rows need no pgx awareness.
type BoundProjectionWriter struct {
	DB   TxBeginner
	Repo ProjectionRepository
}

func (w BoundProjectionWriter) UpsertMany(ctx context.Context, rows []domain.ProjectionRow) error {
	return w.Repo.UpsertMany(ctx, w.DB, rows)
}

const projectionColumns = `
	event_id, match_id, local_event_id, type_id, period_id, time_min, time_sec,
	contestant_id, player_id, player_name, outcome, x, y, qualifiers,
	time_stamp, last_modified`

const upsertProjectionSQL = `
	INSERT INTO match_projections (` + projectionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (event_id) DO UPDATE SET
		match_id = EXCLUDED.match_id,
		local_event_id = EXCLUDED.local_event_id,
		type_id = EXCLUDED.type_id,
		period_id = EXCLUDED.period_id,
		time_min = EXCLUDED.time_min,
		time_sec = EXCLUDED.time_sec,
		contestant_id = EXCLUDED.contestant_id,
		player_id = EXCLUDED.player_id,
		player_name = EXCLUDED.player_name,
		outcome = EXCLUDED.outcome,
		x = EXCLUDED.x,
		y = EXCLUDED.y,
		qualifiers = EXCLUDED.qualifiers,
		time_stamp = EXCLUDED.time_stamp,
		last_modified = EXCLUDED.last_modified`

func (r *projectionRepo) UpsertMany(ctx context.Context, db TxBeginner, rows []domain.ProjectionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Postgres rejects a statement touching the same conflict key twice, so
	// duplicate feed event ids within a batch keep the first occurrence.
	seen := make(map[int64]bool, len(rows))
	deduped := rows[:0:0]
	for _, row := range rows {
		if seen[row.FeedEventID] {
			r.logger.Warn("duplicate feed event id in projection batch, keeping first",
				"match_id", row.MatchID, "feed_event_id", row.FeedEventID)
			continue
		}
		seen[row.FeedEventID] = true
		deduped = append(deduped, row)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin projection upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range deduped {
		qualifiers, err := json.Marshal(row.Qualifiers)
		if err != nil {
			return fmt.Errorf("encode qualifiers for event %d: %w", row.FeedEventID, err)
		}
		_, err = tx.Exec(ctx, upsertProjectionSQL,
			row.FeedEventID, row.MatchID, row.LocalEventID, row.TypeID, row.PeriodID,
			row.TimeMin, row.TimeSec, row.ContestantID, row.PlayerID, row.PlayerName,
			row.Outcome, row.X, row.Y, qualifiers, row.TimeStamp, row.LastModified)
		if err != nil {
			return fmt.Errorf("upsert projection row %d: %w", row.FeedEventID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit projection upsert tx: %w", err)
	}
	return nil
}

func (r *projectionRepo) LoadByMatch(ctx context.Context, db DBTX, matchID string) ([]domain.ProjectionRow, error) {
	rows, err := db.Query(ctx, `
		SELECT `+projectionColumns+`
		FROM match_projections
		WHERE match_id = $1
		ORDER BY event_id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load projections for match %s: %w", matchID, err)
	}
	defer rows.Close()
	return scanProjectionRows(rows)
}

func (r *projectionRepo) LoadByIDs(ctx context.Context, db DBTX, eventIDs []int64) ([]domain.ProjectionRow, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT `+projectionColumns+`
		FROM match_projections
		WHERE event_id = ANY($1)
		ORDER BY event_id ASC`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("load projections by ids: %w", err)
	}
	defer rows.Close()
	return scanProjectionRows(rows)
}

func scanProjectionRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.ProjectionRow, error) {
	var out []domain.ProjectionRow
	for rows.Next() {
		var (
			row        domain.ProjectionRow
			qualifiers []byte
		)
		err := rows.Scan(
			&row.FeedEventID, &row.MatchID, &row.LocalEventID, &row.TypeID, &row.PeriodID,
			&row.TimeMin, &row.TimeSec, &row.ContestantID, &row.PlayerID, &row.PlayerName,
			&row.Outcome, &row.X, &row.Y, &qualifiers, &row.TimeStamp, &row.LastModified)
		if err != nil {
			return nil, fmt.Errorf("scan projection row: %w", err)
		}
		if len(qualifiers) > 0 {
			if err := json.Unmarshal(qualifiers, &row.Qualifiers); err != nil {
				return nil, fmt.Errorf("decode qualifiers for event %d: %w", row.FeedEventID, err)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
