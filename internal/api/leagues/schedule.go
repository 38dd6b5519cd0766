package leagues

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dmaskell/rackline/internal/api/apiutil"
	"github.com/dmaskell/rackline/internal/schedule"
)

// eventWindowPadDays extends the event query past both ends of the
// season so edge weeks still see nearby events.
const eventWindowPadDays = 7

type schedulePreviewRequest struct {
	StartDate    string `json:"startDate"`
	SeasonLength *int   `json:"seasonLength"`
	BreakWeeks   *int   `json:"breakWeeks"`
}

type weekPairings struct {
	WeekNumber int                `json:"weekNumber"`
	Pairings   []schedule.Pairing `json:"pairings"`
}

type schedulePreviewResponse struct {
	LeagueID  int64                `json:"leagueId"`
	TeamCount int                  `json:"teamCount"`
	Weeks     []schedule.WeekEntry `json:"weeks"`
	Pairings  []weekPairings       `json:"pairings"`
}

// POST /api/v1/leagues/{id}/schedule/preview
//
// Generates and annotates a season calendar without persisting anything;
// the review surface calls this on every edit.
func HandlePreviewSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req schedulePreviewRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	preview, err := buildPreview(ctx, leagueID, req)
	if err != nil {
		writeScheduleError(w, logger, leagueID, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, preview)
}

// POST /api/v1/leagues/{id}/schedule
//
// Regenerates the schedule from current league settings and persists it.
func HandleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req schedulePreviewRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	preview, err := buildPreview(ctx, leagueID, req)
	if err != nil {
		writeScheduleError(w, logger, leagueID, err)
		return
	}
	if err := store.SaveSchedule(ctx, leagueID, preview.Weeks); err != nil {
		logger.Error().Err(err).Int64("league_id", leagueID).Msg("Failed to save schedule")
		http.Error(w, "Failed to save schedule", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, preview)
}

// GET /api/v1/leagues/{id}/schedule
func HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	weeks, err := store.GetSchedule(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Int64("league_id", leagueID).Msg("Failed to load schedule")
		http.Error(w, "Failed to load schedule", http.StatusInternalServerError)
		return
	}
	if len(weeks) == 0 {
		http.Error(w, "No schedule saved for league", http.StatusNotFound)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"weeks": weeks})
}

func buildPreview(ctx context.Context, leagueID int64, req schedulePreviewRequest) (*schedulePreviewResponse, error) {
	league, err := store.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	startDate := league.StartDate
	if req.StartDate != "" {
		startDate, err = apiutil.ParseDateField(req.StartDate, "start_date")
		if err != nil {
			return nil, &schedule.ValidationError{Field: "start_date", Reason: "must be a date in YYYY-MM-DD format"}
		}
	}
	seasonLength := league.SeasonLength
	if req.SeasonLength != nil {
		seasonLength = *req.SeasonLength
	}
	breakWeeks := league.BreakWeeks
	if req.BreakWeeks != nil {
		breakWeeks = *req.BreakWeeks
	}

	teams, err := store.ListTeams(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, &schedule.ValidationError{Field: "teams", Reason: "are required before generating a schedule"}
	}
	teamCount := schedule.EffectiveTeamCount(len(teams))

	table, err := registry.Lookup(teamCount)
	if err != nil {
		return nil, err
	}

	blackouts, err := store.ListBlackoutDates(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	weeks, err := schedule.GenerateSeason(startDate, seasonLength, blackouts, breakWeeks)
	if err != nil {
		return nil, err
	}

	from := weeks[0].Date.AddDate(0, 0, -eventWindowPadDays)
	to := weeks[len(weeks)-1].Date.AddDate(0, 0, eventWindowPadDays)
	weeks = schedule.AnnotateConflicts(weeks, calendar.EventsBetween(from, to))

	pairings := make([]weekPairings, 0, seasonLength)
	for _, week := range weeks {
		if week.Type != schedule.WeekRegular {
			continue
		}
		pairings = append(pairings, weekPairings{
			WeekNumber: week.WeekNumber,
			Pairings:   table.WeekPairings(week.WeekNumber),
		})
	}

	return &schedulePreviewResponse{
		LeagueID:  leagueID,
		TeamCount: teamCount,
		Weeks:     weeks,
		Pairings:  pairings,
	}, nil
}

func writeScheduleError(w http.ResponseWriter, logger *zerolog.Logger, leagueID int64, err error) {
	var validationErr *schedule.ValidationError
	var noTableErr *schedule.NoMatchupTableError

	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "League not found", http.StatusNotFound)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &noTableErr):
		http.Error(w, noTableErr.Error(), http.StatusUnprocessableEntity)
	default:
		logger.Error().Err(err).Int64("league_id", leagueID).Msg("Schedule generation failed")
		http.Error(w, "Failed to generate schedule", http.StatusInternalServerError)
	}
}
