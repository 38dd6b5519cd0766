package leagues

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmaskell/rackline/internal/api/apiutil"
	appdb "github.com/dmaskell/rackline/internal/db"
	"github.com/dmaskell/rackline/internal/events"
	"github.com/dmaskell/rackline/internal/schedule"
)

const (
	leagueQueryTimeout = 5 * time.Second
	leagueIDPathKey    = "id"
	teamIDPathKey      = "teamId"
)

var (
	store    *appdb.DB
	registry *schedule.MatchupRegistry
	calendar *events.Calendar
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB, matchups *schedule.MatchupRegistry, eventCalendar *events.Calendar) {
	if database == nil || matchups == nil || eventCalendar == nil {
		return
	}
	initOnce.Do(func() {
		store = database
		registry = matchups
		calendar = eventCalendar
	})
}

type createLeagueRequest struct {
	Name          string `json:"name"`
	OperatorEmail string `json:"operatorEmail"`
	StartDate     string `json:"startDate"`
	SeasonLength  int    `json:"seasonLength"`
	BreakWeeks    *int   `json:"breakWeeks"`
}

// POST /api/v1/leagues
func HandleCreateLeague(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if store == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	var req createLeagueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	startDate, err := apiutil.ParseDateField(req.StartDate, "start_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.SeasonLength < 1 {
		http.Error(w, "season_length must be greater than 0", http.StatusBadRequest)
		return
	}
	breakWeeks := schedule.DefaultSeasonEndBreakWeeks
	if req.BreakWeeks != nil {
		if *req.BreakWeeks < 0 {
			http.Error(w, "break_weeks must be 0 or greater", http.StatusBadRequest)
			return
		}
		breakWeeks = *req.BreakWeeks
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	league, err := store.CreateLeague(ctx, appdb.League{
		Name:          strings.TrimSpace(req.Name),
		OperatorEmail: strings.TrimSpace(req.OperatorEmail),
		StartDate:     startDate,
		SeasonLength:  req.SeasonLength,
		BreakWeeks:    breakWeeks,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create league")
		http.Error(w, "Failed to create league", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, league)
}

// GET /api/v1/leagues/{id}
func HandleGetLeague(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	league, err := store.GetLeague(ctx, leagueID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "League not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("league_id", leagueID).Msg("Failed to load league")
		http.Error(w, "Failed to load league", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, league)
}

type createTeamRequest struct {
	Name  string `json:"name"`
	Venue string `json:"venue"`
}

// POST /api/v1/leagues/{id}/teams
func HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req createTeamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
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

	team, err := store.CreateTeam(ctx, leagueID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Venue))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create team")
		http.Error(w, "Failed to create team", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, team)
}

// GET /api/v1/leagues/{id}/teams
func HandleListTeams(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	teams, err := store.ListTeams(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list teams")
		http.Error(w, "Failed to list teams", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

type blackoutRequest struct {
	Date string `json:"date"`
}

// POST /api/v1/leagues/{id}/blackouts
func HandleAddBlackout(w http.ResponseWriter, r *http.Request) {
	handleBlackoutChange(w, r, store.AddBlackoutDate)
}

// DELETE /api/v1/leagues/{id}/blackouts
func HandleRemoveBlackout(w http.ResponseWriter, r *http.Request) {
	handleBlackoutChange(w, r, store.RemoveBlackoutDate)
}

func handleBlackoutChange(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, time.Time) error) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req blackoutRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form body", http.StatusBadRequest)
			return
		}
		req.Date = r.FormValue("date")
	}
	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
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

	if err := apply(ctx, leagueID, date); err != nil {
		logger.Error().Err(err).Msg("Failed to update blackout dates")
		http.Error(w, "Failed to update blackout dates", http.StatusInternalServerError)
		return
	}

	dates, err := store.ListBlackoutDates(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list blackout dates")
		http.Error(w, "Failed to list blackout dates", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"blackoutDates": formatDates(dates)})
}

// GET /api/v1/leagues/{id}/blackouts
func HandleListBlackouts(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	leagueID, err := leagueIDFromPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	dates, err := store.ListBlackoutDates(ctx, leagueID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list blackout dates")
		http.Error(w, "Failed to list blackout dates", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"blackoutDates": formatDates(dates)})
}

func formatDates(dates []time.Time) []string {
	formatted := make([]string, 0, len(dates))
	for _, date := range dates {
		formatted = append(formatted, date.Format("2006-01-02"))
	}
	return formatted
}

func leagueIDFromPath(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(leagueIDPathKey))
	return apiutil.ParsePositiveInt64Field(raw, "league id")
}

func teamIDFromPath(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(teamIDPathKey))
	return apiutil.ParsePositiveInt64Field(raw, "team id")
}
