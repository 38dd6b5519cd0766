package matchups

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaskell/rackline/internal/api/apiutil"
	"github.com/dmaskell/rackline/internal/schedule"
)

const teamCountParam = "teamCount"

var (
	registry *schedule.MatchupRegistry
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(matchups *schedule.MatchupRegistry) {
	if matchups == nil {
		return
	}
	initOnce.Do(func() {
		registry = matchups
	})
}

// GET /api/v1/matchups
func HandleListSupportedCounts(w http.ResponseWriter, r *http.Request) {
	if registry == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"supportedTeamCounts": registry.SupportedCounts()})
}

// GET /api/v1/matchups/{teamCount}
func HandleGetMatchupTable(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if registry == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	raw := strings.TrimSpace(r.PathValue(teamCountParam))
	teamCount, err := apiutil.ParsePositiveIntField(raw, "team count")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	table, err := registry.Lookup(teamCount)
	if err != nil {
		var noTable *schedule.NoMatchupTableError
		if errors.As(err, &noTable) {
			http.Error(w, noTable.Error(), http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int("team_count", teamCount).Msg("Matchup lookup failed")
		http.Error(w, "Failed to look up matchup table", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, table)
}
