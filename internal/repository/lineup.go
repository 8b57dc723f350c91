package repository

import (
	"context"
	"fmt"

	"github.com/pitchside/streaming/internal/domain"
)

type lineupRepo struct{}

// NewLineupRepository returns a pgx-backed LineupRepository.
func NewLineupRepository() LineupRepository {
	return &lineupRepo{}
}

func (r *lineupRepo) Upsert(ctx context.Context, db DBTX, lineup domain.Lineup) error {
	_, err := db.Exec(ctx, `
		INSERT INTO lineups
			(match_id, contestant_id, formation_id, formation_name, player_ids,
			 formation_slots, formation_positions, captain_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_id, contestant_id) DO UPDATE SET
			formation_id = EXCLUDED.formation_id,
			formation_name = EXCLUDED.formation_name,
			player_ids = EXCLUDED.player_ids,
			formation_slots = EXCLUDED.formation_slots,
			formation_positions = EXCLUDED.formation_positions,
			captain_id = EXCLUDED.captain_id`,
		lineup.MatchID, lineup.ContestantID, lineup.FormationID, lineup.FormationName,
		lineup.PlayerIDs, lineup.FormationSlots, lineup.FormationPositions, lineup.CaptainID)
	if err != nil {
		return fmt.Errorf("upsert lineup %s/%s: %w", lineup.MatchID, lineup.ContestantID, err)
	}
	return nil
}

func (r *lineupRepo) LoadByMatch(ctx context.Context, db DBTX, matchID string) ([]domain.Lineup, error) {
	rows, err := db.Query(ctx, `
		SELECT match_id, contestant_id, formation_id, formation_name, player_ids,
		       formation_slots, formation_positions, captain_id
		FROM lineups
		WHERE match_id = $1
		ORDER BY contestant_id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load lineups for match %s: %w", matchID, err)
	}
	defer rows.Close()

	var lineups []domain.Lineup
	for rows.Next() {
		var l domain.Lineup
		err := rows.Scan(&l.MatchID, &l.ContestantID, &l.FormationID, &l.FormationName,
			&l.PlayerIDs, &l.FormationSlots, &l.FormationPositions, &l.CaptainID)
		if err != nil {
			return nil, fmt.Errorf("scan lineup row: %w", err)
		}
		lineups = append(lineups, l)
	}
	return lineups, rows.Err()
}
