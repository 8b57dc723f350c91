package handler

import (
	"net/http"

	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/repository"
)

// EventsHandler serves read-model queries.
type EventsHandler struct {
	projections repository.ProjectionRepository
	lineups     repository.LineupRepository
	db          repository.DBTX
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(projections repository.ProjectionRepository, lineups repository.LineupRepository, db repository.DBTX) *EventsHandler {
	return &EventsHandler{projections: projections, lineups: lineups, db: db}
}

// GetEventsByGameID handles GET /events_by_game_id?game_id=. An unknown game
// is a 404 so callers can tell "no such match" from "match without events".
func (h *EventsHandler) GetEventsByGameID(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		RespondError(w, domain.ErrValidation("game_id query parameter is required"))
		return
	}

	rows, err := h.projections.LoadByMatch(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if len(rows) == 0 {
		RespondError(w, domain.ErrNotFound("events for game", gameID))
		return
	}
	RespondJSON(w, http.StatusOK, rows)
}

type eventIDsRequest struct {
	EventIDs []int64 `json:"event_ids"`
}

// GetEventsByIDs handles POST /events_by_ids. Unknown ids are absent from the
// response rather than erroring.
func (h *EventsHandler) GetEventsByIDs(w http.ResponseWriter, r *http.Request) {
	var req eventIDsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if len(req.EventIDs) == 0 {
		RespondError(w, domain.ErrValidation("event_ids must not be empty"))
		return
	}

	rows, err := h.projections.LoadByIDs(r.Context(), h.db, req.EventIDs)
	if err != nil {
		RespondError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.ProjectionRow{}
	}
	RespondJSON(w, http.StatusOK, rows)
}

// GetLineups handles GET /lineups?game_id=.
func (h *EventsHandler) GetLineups(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		RespondError(w, domain.ErrValidation("game_id query parameter is required"))
		return
	}

	lineups, err := h.lineups.LoadByMatch(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if len(lineups) == 0 {
		RespondError(w, domain.ErrNotFound("lineups for game", gameID))
		return
	}
	RespondJSON(w, http.StatusOK, lineups)
}
