package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmaskell/rackline/internal/db"
	"github.com/dmaskell/rackline/internal/email"
	"github.com/dmaskell/rackline/internal/events"
	"github.com/dmaskell/rackline/internal/schedule"
)

const conflictSweepTimeout = 2 * time.Minute

// RegisterConflictSweep wires the nightly conflict job onto the service.
// The sender may be nil; the sweep then refreshes stored flags without
// emailing anyone.
func RegisterConflictSweep(svc *Service, database *db.DB, calendar *events.Calendar, sender email.Sender, cronExpr string, horizonDays int) error {
	if database == nil {
		return fmt.Errorf("conflict sweep requires database")
	}
	if calendar == nil {
		return fmt.Errorf("conflict sweep requires event calendar")
	}

	jobLogger := log.With().Str("component", "conflict_sweep").Logger()
	_, err := svc.AddJob("conflict_sweep", cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), conflictSweepTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if err := RunConflictSweep(ctx, database, calendar, sender, horizonDays); err != nil {
			jobLogger.Error().Err(err).Msg("Conflict sweep failed")
		}
	})
	return err
}

// RunConflictSweep re-annotates every league whose schedule still has
// weeks ahead of it. When a league's conflict set changed since the last
// run, the stored flags are refreshed and the operator gets a digest.
func RunConflictSweep(ctx context.Context, database *db.DB, calendar *events.Calendar, sender email.Sender, horizonDays int) error {
	logger := log.Ctx(ctx)
	now := time.Now().UTC()

	leagues, err := database.ListLeaguesWithWeeksFrom(ctx, now)
	if err != nil {
		return fmt.Errorf("list active leagues: %w", err)
	}

	for _, league := range leagues {
		leagueLogger := logger.With().Int64("league_id", league.ID).Logger()

		weeks, err := database.GetSchedule(ctx, league.ID)
		if err != nil {
			leagueLogger.Error().Err(err).Msg("Failed to load schedule for sweep")
			continue
		}
		if len(weeks) == 0 {
			continue
		}

		from := weeks[0].Date.AddDate(0, 0, -horizonDays)
		to := weeks[len(weeks)-1].Date.AddDate(0, 0, horizonDays)
		annotated := schedule.AnnotateConflicts(weeks, calendar.EventsBetween(from, to))

		if conflictFingerprint(annotated) == conflictFingerprint(weeks) {
			continue
		}

		if err := database.SaveSchedule(ctx, league.ID, annotated); err != nil {
			leagueLogger.Error().Err(err).Msg("Failed to store refreshed conflicts")
			continue
		}
		leagueLogger.Info().Msg("Conflict flags refreshed")

		if sender == nil || league.OperatorEmail == "" {
			continue
		}
		body := email.ConflictDigestBody(league.Name, annotated)
		if body == "" {
			continue
		}
		if err := sender.Send(ctx, league.OperatorEmail, email.ConflictDigestSubject(league.Name), body); err != nil {
			leagueLogger.Error().Err(err).Msg("Failed to send conflict digest")
		}
	}
	return nil
}

// conflictFingerprint reduces a schedule's flag set to a comparable
// string so the sweep only writes and emails on change.
func conflictFingerprint(weeks []schedule.WeekEntry) string {
	fingerprint := ""
	for _, week := range weeks {
		for _, flag := range week.Conflicts {
			fingerprint += fmt.Sprintf("%d|%s|%s|%d;", week.WeekNumber, flag.Name, flag.Severity, flag.DaysAway)
		}
	}
	return fingerprint
}
