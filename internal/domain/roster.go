package domain

// Team is scope-minimal reference data for a contestant.
type Team struct {
	TeamID       string `json:"team_id"`
	Name         string `json:"name"`
	ShortName    string `json:"short_name"`
	OfficialName string `json:"official_name"`
	Country      string `json:"country"`
}

// Player is scope-minimal reference data, keyed by the internal player id.
// MatchName is the display name as it appears in feeds.
type Player struct {
	PlayerID    string `json:"player_id"`
	MatchName   string `json:"match_name"`
	ShirtNumber int    `json:"shirt_number"`
	TeamID      string `json:"team_id"`
}

// Lineup is one team's starting arrangement for a match, extracted from the
// fallback provider's first formation. PlayerIDs hold internal ids and
// exclude players whose formation slot is zero (bench).
type Lineup struct {
	MatchID            string   `json:"match_id"`
	ContestantID       string   `json:"contestant_id"`
	FormationID        int      `json:"formation_id"`
	FormationName      string   `json:"formation_name"`
	PlayerIDs          []string `json:"player_ids"`
	FormationSlots     []int    `json:"formation_slots"`
	FormationPositions []string `json:"formation_positions"`
	CaptainID          string   `json:"captain_id"`
}
