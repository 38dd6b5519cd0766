// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmaskell/rackline/internal/api"
	"github.com/dmaskell/rackline/internal/api/leagues"
	"github.com/dmaskell/rackline/internal/api/matchups"
	"github.com/dmaskell/rackline/internal/config"
	appdb "github.com/dmaskell/rackline/internal/db"
	"github.com/dmaskell/rackline/internal/events"
	"github.com/dmaskell/rackline/internal/ratelimit"
	"github.com/dmaskell/rackline/internal/schedule"
)

func newServer(cfg *config.Config, database *appdb.DB, registry *schedule.MatchupRegistry, calendar *events.Calendar) *http.Server {
	leagues.InitHandlers(database, registry, calendar)
	matchups.InitHandlers(registry)

	router := http.NewServeMux()
	registerRoutes(router)

	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(ratelimit.New(nil)),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// League routes
	mux.HandleFunc("POST /api/v1/leagues", leagues.HandleCreateLeague)
	mux.HandleFunc("GET /api/v1/leagues/{id}", leagues.HandleGetLeague)
	mux.HandleFunc("POST /api/v1/leagues/{id}/teams", leagues.HandleCreateTeam)
	mux.HandleFunc("GET /api/v1/leagues/{id}/teams", leagues.HandleListTeams)

	// Blackout routes
	mux.HandleFunc("GET /api/v1/leagues/{id}/blackouts", leagues.HandleListBlackouts)
	mux.HandleFunc("POST /api/v1/leagues/{id}/blackouts", leagues.HandleAddBlackout)
	mux.HandleFunc("DELETE /api/v1/leagues/{id}/blackouts", leagues.HandleRemoveBlackout)

	// Schedule routes
	mux.HandleFunc("POST /api/v1/leagues/{id}/schedule/preview", leagues.HandlePreviewSchedule)
	mux.HandleFunc("POST /api/v1/leagues/{id}/schedule", leagues.HandleSaveSchedule)
	mux.HandleFunc("GET /api/v1/leagues/{id}/schedule", leagues.HandleGetSchedule)

	// Position routes
	mux.HandleFunc("POST /api/v1/leagues/{id}/positions/assign", leagues.HandleAssignPositions)
	mux.HandleFunc("GET /api/v1/leagues/{id}/positions", leagues.HandleListPositions)
	mux.HandleFunc("PUT /api/v1/leagues/{id}/positions/{teamId}", leagues.HandleSetPosition)

	// Matchup table routes
	mux.HandleFunc("GET /api/v1/matchups", matchups.HandleListSupportedCounts)
	mux.HandleFunc("GET /api/v1/matchups/{teamCount}", matchups.HandleGetMatchupTable)
}
