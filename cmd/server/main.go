// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dmaskell/rackline/internal/config"
	appdb "github.com/dmaskell/rackline/internal/db"
	"github.com/dmaskell/rackline/internal/email"
	"github.com/dmaskell/rackline/internal/events"
	"github.com/dmaskell/rackline/internal/schedule"
	"github.com/dmaskell/rackline/internal/sweep"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := appdb.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	registry := schedule.NewMatchupRegistry()

	calendar, err := events.LoadCalendar(cfg.Events.CalendarFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Events.CalendarFile).Msg("Failed to load event calendar")
	}

	var sender email.Sender
	if cfg.Email.Enabled {
		sender, err = email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create email client")
		}
	}

	var sweeper *sweep.Service
	if cfg.Sweep.Enabled {
		sweeper, err = sweep.NewService()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create sweep scheduler")
		}
		if err := sweep.RegisterConflictSweep(sweeper, database, calendar, sender, cfg.Sweep.Cron, cfg.Sweep.HorizonDays); err != nil {
			log.Fatal().Err(err).Msg("Failed to register conflict sweep")
		}
		sweeper.Start()
		defer func() {
			if err := sweeper.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop sweep scheduler")
			}
		}()
	}

	server := newServer(cfg, database, registry, calendar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
