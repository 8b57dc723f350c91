package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjections struct {
	byMatch map[string][]domain.ProjectionRow
}

func (f *fakeProjections) UpsertMany(context.Context, repository.TxBeginner, []domain.ProjectionRow) error {
	panic("not used by handlers")
}

func (f *fakeProjections) LoadByMatch(_ context.Context, _ repository.DBTX, matchID string) ([]domain.ProjectionRow, error) {
	return f.byMatch[matchID], nil
}

func (f *fakeProjections) LoadByIDs(_ context.Context, _ repository.DBTX, eventIDs []int64) ([]domain.ProjectionRow, error) {
	want := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	var out []domain.ProjectionRow
	for _, rows := range f.byMatch {
		for _, row := range rows {
			if want[row.FeedEventID] {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type fakeLineups struct {
	byMatch map[string][]domain.Lineup
}

func (f *fakeLineups) Upsert(context.Context, repository.DBTX, domain.Lineup) error {
	panic("not used by handlers")
}

func (f *fakeLineups) LoadByMatch(_ context.Context, _ repository.DBTX, matchID string) ([]domain.Lineup, error) {
	return f.byMatch[matchID], nil
}

func row(matchID string, feedEventID int64, typeID int) domain.ProjectionRow {
	return domain.ProjectionRow{
		MatchID: matchID,
		MatchEvent: domain.MatchEvent{
			FeedEventID:  feedEventID,
			LocalEventID: int32(feedEventID),
			TypeID:       typeID,
			PeriodID:     1,
		},
	}
}

func newTestRouter(projections *fakeProjections, lineups *fakeLineups) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewEventsHandler(projections, lineups, nil)

	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(JSONContentType)
	r.Get("/events_by_game_id", h.GetEventsByGameID)
	r.Post("/events_by_ids", h.GetEventsByIDs)
	r.Get("/lineups", h.GetLineups)
	return r
}

func TestGetEventsByGameID(t *testing.T) {
	projections := &fakeProjections{byMatch: map[string][]domain.ProjectionRow{
		"match-1": {row("match-1", 1, 32), row("match-1", 2, 1)},
	}}
	router := newTestRouter(projections, &fakeLineups{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events_by_game_id?game_id=match-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.ProjectionRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].FeedEventID)
}

func TestGetEventsByGameIDNotFound(t *testing.T) {
	router := newTestRouter(&fakeProjections{byMatch: map[string][]domain.ProjectionRow{}}, &fakeLineups{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events_by_game_id?game_id=ghost", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestGetEventsByGameIDRequiresParam(t *testing.T) {
	router := newTestRouter(&fakeProjections{}, &fakeLineups{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events_by_game_id", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEventsByIDs(t *testing.T) {
	projections := &fakeProjections{byMatch: map[string][]domain.ProjectionRow{
		"match-1": {row("match-1", 1, 32), row("match-1", 2, 1)},
	}}
	router := newTestRouter(projections, &fakeLineups{})

	body := strings.NewReader(`{"event_ids": [2, 999]}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events_by_ids", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.ProjectionRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].FeedEventID)
}

func TestGetEventsByIDsValidation(t *testing.T) {
	router := newTestRouter(&fakeProjections{}, &fakeLineups{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty ids", body: `{"event_ids": []}`},
		{name: "malformed body", body: `{"event_ids": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events_by_ids", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetLineups(t *testing.T) {
	lineups := &fakeLineups{byMatch: map[string][]domain.Lineup{
		"match-1": {
			{MatchID: "match-1", ContestantID: "team-home", FormationName: "442"},
			{MatchID: "match-1", ContestantID: "team-away", FormationName: "433"},
		},
	}}
	router := newTestRouter(&fakeProjections{}, lineups)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lineups?game_id=match-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []domain.Lineup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "442", out[0].FormationName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lineups?game_id=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
