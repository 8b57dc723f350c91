package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/mapping"
	"github.com/pitchside/streaming/internal/publisher"
)

// TeamWriter persists team reference records.
type TeamWriter interface {
	Upsert(ctx context.Context, team domain.Team) error
}

// PlayerWriter persists healed player records.
type PlayerWriter interface {
	Upsert(ctx context.Context, player domain.Player) error
}

// LineupWriter persists extracted lineups.
type LineupWriter interface {
	Upsert(ctx context.Context, lineup domain.Lineup) error
}

// ProjectionWriter persists normalized projection rows.
type ProjectionWriter interface {
	UpsertMany(ctx context.Context, rows []domain.ProjectionRow) error
}

// Service runs one fallback ingestion: parse, heal, normalize, persist,
// publish.
type Service struct {
	mappings    *mapping.Mappings
	teams       TeamWriter
	players     PlayerWriter
	lineups     LineupWriter
	projections ProjectionWriter
	bus         publisher.Publisher
	logger      *slog.Logger
}

// NewService wires a fallback ingestion service.
func NewService(
	mappings *mapping.Mappings,
	teams TeamWriter,
	players PlayerWriter,
	lineups LineupWriter,
	projections ProjectionWriter,
	bus publisher.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		mappings:    mappings,
		teams:       teams,
		players:     players,
		lineups:     lineups,
		projections: projections,
		bus:         bus,
		logger:      logger,
	}
}

// Process ingests one scraped payload for the given external match id.
// A missing match mapping aborts the invocation; a missing team mapping
// drops the affected event; a missing player mapping is healed from the
// roster when possible and otherwise drops the event with a warning.
func (s *Service) Process(ctx context.Context, externalMatchID string, payload []byte) error {
	data, err := Parse(payload)
	if err != nil {
		return err
	}

	matchID := s.mappings.Lookup(mapping.NamespaceMatch, externalMatchID)
	if matchID == "" {
		return domain.ErrUnmapped(mapping.NamespaceMatch, externalMatchID)
	}
	logger := s.logger.With("match_id", matchID)

	// Heal rosters before touching events so newly minted players are
	// already mapped when their events are normalized.
	for _, sheet := range []TeamSheet{data.Home, data.Away} {
		if err := s.healRoster(ctx, sheet, data.PlayerIDNameDictionary, logger); err != nil {
			return err
		}
	}

	rows := s.normalizeEvents(ctx, matchID, data, logger)

	for _, sheet := range []TeamSheet{data.Home, data.Away} {
		lineup, ok := s.extractLineup(matchID, sheet, logger)
		if !ok {
			continue
		}
		if err := s.lineups.Upsert(ctx, lineup); err != nil {
			return fmt.Errorf("persist lineup for team %d: %w", sheet.TeamID, err)
		}
	}

	if err := s.projections.UpsertMany(ctx, rows); err != nil {
		return fmt.Errorf("persist fallback rows: %w", err)
	}
	if err := s.bus.Publish(ctx, matchID, publisher.MessageTypeUpdate, rows); err != nil {
		return fmt.Errorf("publish fallback update: %w", err)
	}

	logger.Info("fallback ingestion complete", "rows", len(rows))
	return nil
}

// healRoster refreshes the team's reference row and mints mappings and player
// records for roster players that are unknown to the player namespace.
func (s *Service) healRoster(ctx context.Context, sheet TeamSheet, names map[string]string, logger *slog.Logger) error {
	teamExt := strconv.FormatInt(sheet.TeamID, 10)
	teamID := s.mappings.Lookup(mapping.NamespaceTeam, teamExt)
	if teamID == "" {
		logger.Error("roster team has no mapping, skipping heal", "external_team_id", teamExt)
		return nil
	}

	if sheet.Name != "" {
		team := domain.Team{TeamID: teamID, Name: sheet.Name}
		if err := s.teams.Upsert(ctx, team); err != nil {
			return fmt.Errorf("persist team %s: %w", teamID, err)
		}
	}

	if len(sheet.Formations) == 0 {
		return nil
	}
	formation := sheet.Formations[0]
	for i, extID := range formation.PlayerIDs {
		ext := strconv.FormatInt(extID, 10)
		if s.mappings.Lookup(mapping.NamespacePlayer, ext) != "" {
			continue
		}
		name := names[ext]
		if name == "" {
			logger.Warn("roster player missing from name dictionary", "external_player_id", ext)
			continue
		}

		internal, err := s.mappings.Mint(ctx, mapping.NamespacePlayer, ext)
		if err != nil {
			return fmt.Errorf("heal player %s: %w", ext, err)
		}
		player := domain.Player{
			PlayerID:  internal,
			MatchName: name,
			TeamID:    teamID,
		}
		if i < len(formation.JerseyNumbers) {
			player.ShirtNumber = formation.JerseyNumbers[i]
		}
		if err := s.players.Upsert(ctx, player); err != nil {
			return fmt.Errorf("persist healed player %s: %w", ext, err)
		}
		logger.Info("healed roster player",
			"external_player_id", ext, "player_id", internal, "match_name", name)
	}
	return nil
}

func (s *Service) normalizeEvents(_ context.Context, matchID string, data *PageData, logger *slog.Logger) []domain.ProjectionRow {
	rows := make([]domain.ProjectionRow, 0, len(data.Events))
	for i := range data.Events {
		ev := &data.Events[i]
		if ev.ID == nil || ev.EventID == nil {
			logger.Warn("dropping page event missing id or eventId")
			continue
		}

		var teamID string
		if ev.TeamID != nil {
			teamID = s.mappings.Lookup(mapping.NamespaceTeam, strconv.FormatInt(*ev.TeamID, 10))
			if teamID == "" {
				logger.Error("dropping event with unmapped team",
					"feed_event_id", *ev.ID, "external_team_id", *ev.TeamID)
				continue
			}
		}

		var playerID string
		if ev.PlayerID != nil {
			playerID = s.mappings.Lookup(mapping.NamespacePlayer, strconv.FormatInt(*ev.PlayerID, 10))
			if playerID == "" {
				logger.Warn("dropping event with unmapped player",
					"feed_event_id", *ev.ID, "external_player_id", *ev.PlayerID)
				continue
			}
		}

		row := domain.ProjectionRow{
			MatchID: matchID,
			MatchEvent: domain.MatchEvent{
				FeedEventID:  *ev.ID,
				LocalEventID: *ev.EventID,
				ContestantID: teamID,
				PlayerID:     playerID,
				X:            ev.X,
				Y:            ev.Y,
				Qualifiers:   transformQualifiers(ev.Qualifiers),
			},
		}
		if ev.Type != nil {
			row.TypeID = ev.Type.Value
		}
		if ev.Period != nil {
			row.PeriodID = ev.Period.Value
		}
		if ev.Minute != nil {
			row.TimeMin = *ev.Minute
		}
		if ev.Second != nil {
			row.TimeSec = *ev.Second
		}
		if ev.OutcomeType != nil {
			outcome := ev.OutcomeType.Value
			row.Outcome = &outcome
		}
		rows = append(rows, row)
	}
	return rows
}

// transformQualifiers converts page-shape qualifiers, where the id hides in
// type.value, into the canonical shape.
func transformQualifiers(qualifiers []PageQualifier) []domain.Qualifier {
	if len(qualifiers) == 0 {
		return nil
	}
	out := make([]domain.Qualifier, len(qualifiers))
	for i, q := range qualifiers {
		out[i] = domain.Qualifier{QualifierID: q.Type.Value, Value: q.Value}
	}
	return out
}

// extractLineup builds the starting lineup from the first formation. Players
// in slot zero are on the bench and excluded from player_ids.
func (s *Service) extractLineup(matchID string, sheet TeamSheet, logger *slog.Logger) (domain.Lineup, bool) {
	if len(sheet.Formations) == 0 {
		return domain.Lineup{}, false
	}
	teamExt := strconv.FormatInt(sheet.TeamID, 10)
	teamID := s.mappings.Lookup(mapping.NamespaceTeam, teamExt)
	if teamID == "" {
		logger.Error("skipping lineup for unmapped team", "external_team_id", teamExt)
		return domain.Lineup{}, false
	}

	formation := sheet.Formations[0]
	lineup := domain.Lineup{
		MatchID:        matchID,
		ContestantID:   teamID,
		FormationID:    formation.FormationID,
		FormationName:  formation.FormationName,
		FormationSlots: formation.FormationSlots,
	}
	for _, pos := range formation.FormationPositions {
		lineup.FormationPositions = append(lineup.FormationPositions, string(pos))
	}
	for i, extID := range formation.PlayerIDs {
		if i < len(formation.FormationSlots) && formation.FormationSlots[i] == 0 {
			continue
		}
		internal := s.mappings.Lookup(mapping.NamespacePlayer, strconv.FormatInt(extID, 10))
		if internal == "" {
			logger.Warn("lineup player has no mapping", "external_player_id", extID)
			continue
		}
		lineup.PlayerIDs = append(lineup.PlayerIDs, internal)
	}
	if formation.CaptainPlayerID != 0 {
		lineup.CaptainID = s.mappings.Lookup(mapping.NamespacePlayer,
			strconv.FormatInt(formation.CaptainPlayerID, 10))
	}
	return lineup, true
}
