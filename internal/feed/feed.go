// Package feed talks to the soccer data provider: per-match event snapshots
// for the ingestion loop and the tournament schedule for the scheduler.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/pitchside/streaming/internal/domain"
)

// EventSource fetches the current full event snapshot for a match.
type EventSource interface {
	MatchEvents(ctx context.Context, matchID string) (domain.FeedSnapshot, error)
}

// Client is the full provider surface.
type Client interface {
	EventSource

	// TournamentSchedule returns the fixture calendar for a tournament.
	TournamentSchedule(ctx context.Context, tournamentID string) (Schedule, error)
}

// Func adapts a plain function to an EventSource. Used by replay harnesses
// and tests.
type Func func(ctx context.Context, matchID string) (domain.FeedSnapshot, error)

func (f Func) MatchEvents(ctx context.Context, matchID string) (domain.FeedSnapshot, error) {
	return f(ctx, matchID)
}

// Schedule is the provider's fixture calendar, grouped by match day.
type Schedule struct {
	MatchDate []MatchDate `json:"matchDate"`
}

// MatchDate is one calendar day of fixtures.
type MatchDate struct {
	Match []ScheduledMatch `json:"match"`
}

// ScheduledMatch is one fixture. Date and Time carry the provider's trailing
// "Z" convention, e.g. "2024-08-17Z" and "14:00:00Z".
type ScheduledMatch struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// Kickoff parses the fixture's UTC kickoff instant.
func (m ScheduledMatch) Kickoff() (time.Time, error) {
	if m.Date == "" || m.Time == "" {
		return time.Time{}, fmt.Errorf("fixture %s has no kickoff date or time", m.ID)
	}
	t, err := time.Parse("2006-01-02Z15:04:05Z", m.Date+m.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse kickoff for fixture %s: %w", m.ID, err)
	}
	return t.UTC(), nil
}
