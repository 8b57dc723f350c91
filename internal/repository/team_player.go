package repository

import (
	"context"
	"fmt"

	"github.com/pitchside/streaming/internal/domain"
)

type teamRepo struct{}

// NewTeamRepository returns a pgx-backed TeamRepository.
func NewTeamRepository() TeamRepository {
	return &teamRepo{}
}

// Upsert only overwrites the name: the fallback page knows nothing about the
// short or official names, so values healed from richer sources survive.
func (r *teamRepo) Upsert(ctx context.Context, db DBTX, team domain.Team) error {
	_, err := db.Exec(ctx, `
		INSERT INTO teams (team_id, name, short_name, official_name, country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name`,
		team.TeamID, team.Name, team.ShortName, team.OfficialName, team.Country)
	if err != nil {
		return fmt.Errorf("upsert team %s: %w", team.TeamID, err)
	}
	return nil
}

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

func (r *playerRepo) Upsert(ctx context.Context, db DBTX, player domain.Player) error {
	_, err := db.Exec(ctx, `
		INSERT INTO players (player_id, match_name, shirt_number, team_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO UPDATE SET
			match_name = EXCLUDED.match_name,
			shirt_number = EXCLUDED.shirt_number,
			team_id = EXCLUDED.team_id`,
		player.PlayerID, player.MatchName, player.ShirtNumber, player.TeamID)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", player.PlayerID, err)
	}
	return nil
}
