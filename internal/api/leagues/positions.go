package leagues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dmaskell/rackline/internal/api/apiutil"
	"github.com/dmaskell/rackline/internal/schedule"
)

type assignPositionsRequest struct {
	Method string `json:"method"`
}

type setPositionRequest struct {
	Position int `json:"position"`
}

func newAssigner(leagueID int64) *schedule.PositionAssigner {
	return schedule.NewPositionAssigner(leagueID, store.SeasonLocked)
}

// POST /api/v1/leagues/{id}/positions/assign
//
// Assigns schedule positions to every team in the league, either in
// registration order or shuffled.
func HandleAssignPositions(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req assignPositionsRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = "sequential"
	}
	if method != "sequential" && method != "shuffle" {
		http.Error(w, fmt.Sprintf("unknown assignment method %q", req.Method), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	if _, err := store.GetLeague(ctx, leagueID); errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "League not found", http.StatusNotFound)
		return
	} else if err != nil {
		logger.Error().Err(err).Msg("Failed to load league")
		http.Error(w, "Failed to load league", http.StatusInternalServerError)
		return
	}

	teams, err := store.ListTeams(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list teams")
		http.Error(w, "Failed to list teams", http.StatusInternalServerError)
		return
	}

	assigner := newAssigner(leagueID)
	var positions []schedule.TeamPosition
	if method == "shuffle" {
		positions, err = assigner.Shuffle(ctx, teams)
	} else {
		positions, err = assigner.AssignSequential(ctx, teams)
	}
	if err != nil {
		writePositionsError(w, logger, leagueID, err)
		return
	}

	if err := store.SavePositions(ctx, leagueID, positions); err != nil {
		logger.Error().Err(err).Msg("Failed to save positions")
		http.Error(w, "Failed to save positions", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

// GET /api/v1/leagues/{id}/positions
func HandleListPositions(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	positions, err := store.ListPositions(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list positions")
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	locked, err := newAssigner(leagueID).Locked(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to check position lock")
		http.Error(w, "Failed to check position lock", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"positions": positions,
		"locked":    locked,
	})
}

// PUT /api/v1/leagues/{id}/positions/{teamId}
//
// Moves one team to a new position, swapping with the previous holder so
// the permutation stays intact.
func HandleSetPosition(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	teamID, err := teamIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req setPositionRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	current, err := store.ListPositions(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list positions")
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	if len(current) == 0 {
		http.Error(w, "No positions assigned for league", http.StatusNotFound)
		return
	}

	updated, err := newAssigner(leagueID).SetPosition(ctx, current, teamID, req.Position)
	if err != nil {
		writePositionsError(w, logger, leagueID, err)
		return
	}

	if err := store.SavePositions(ctx, leagueID, updated); err != nil {
		logger.Error().Err(err).Msg("Failed to save positions")
		http.Error(w, "Failed to save positions", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"positions": updated})
}

func writePositionsError(w http.ResponseWriter, logger *zerolog.Logger, leagueID int64, err error) {
	var validationErr *schedule.ValidationError
	var lockedErr *schedule.PositionsLockedError

	switch {
	case errors.As(err, &lockedErr):
		http.Error(w, lockedErr.Error(), http.StatusConflict)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	default:
		logger.Error().Err(err).Int64("league_id", leagueID).Msg("Position assignment failed")
		http.Error(w, "Failed to assign positions", http.StatusInternalServerError)
	}
}
