package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmaskell/rackline/internal/schedule"
)

const dateLayout = "2006-01-02"

// League is the persisted season configuration the scheduling engine
// generates from.
type League struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	OperatorEmail string    `json:"operatorEmail,omitempty"`
	StartDate     time.Time `json:"startDate"`
	SeasonLength  int       `json:"seasonLength"`
	BreakWeeks    int       `json:"breakWeeks"`
}

// Match carries the status that backs the position lock predicate.
type Match struct {
	ID           int64  `json:"id"`
	LeagueID     int64  `json:"leagueId"`
	WeekNumber   int    `json:"weekNumber"`
	HomePosition int    `json:"homePosition"`
	AwayPosition int    `json:"awayPosition"`
	Status       string `json:"status"`
}

// Match statuses that lock schedule positions once reached.
var lockingMatchStatuses = []string{"completed", "in_progress", "forfeited"}

func (db *DB) CreateLeague(ctx context.Context, league League) (League, error) {
	if league.Name == "" {
		return League{}, fmt.Errorf("league name is required")
	}
	if league.StartDate.IsZero() {
		return League{}, fmt.Errorf("league start date is required")
	}
	if league.SeasonLength < 1 {
		return League{}, fmt.Errorf("league season length must be at least 1")
	}
	if league.BreakWeeks < 0 {
		return League{}, fmt.Errorf("league break weeks must be 0 or greater")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO leagues (name, operator_email, start_date, season_length, break_weeks) VALUES (?, ?, ?, ?, ?)`,
		league.Name, league.OperatorEmail, league.StartDate.Format(dateLayout), league.SeasonLength, league.BreakWeeks,
	)
	if err != nil {
		return League{}, fmt.Errorf("insert league: %w", err)
	}
	league.ID, err = result.LastInsertId()
	if err != nil {
		return League{}, fmt.Errorf("league id: %w", err)
	}
	league.StartDate = truncateToDate(league.StartDate)
	return league, nil
}

func (db *DB) GetLeague(ctx context.Context, leagueID int64) (League, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, name, operator_email, start_date, season_length, break_weeks FROM leagues WHERE id = ?`,
		leagueID,
	)
	return scanLeague(row)
}

// ListLeaguesWithWeeksFrom returns leagues whose persisted schedule still
// has weeks on or after asOf. The conflict sweep uses it to bound its
// nightly re-annotation to seasons that are not over yet.
func (db *DB) ListLeaguesWithWeeksFrom(ctx context.Context, asOf time.Time) ([]League, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT l.id, l.name, l.operator_email, l.start_date, l.season_length, l.break_weeks
		 FROM leagues l
		 JOIN schedule_weeks w ON w.league_id = l.id
		 WHERE w.week_date >= ?
		 ORDER BY l.id`,
		asOf.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []League
	for rows.Next() {
		league, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, league)
	}
	return leagues, rows.Err()
}

func (db *DB) CreateTeam(ctx context.Context, leagueID int64, name, venue string) (schedule.Team, error) {
	if name == "" {
		return schedule.Team{}, fmt.Errorf("team name is required")
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO teams (league_id, name, venue) VALUES (?, ?, ?)`,
		leagueID, name, venue,
	)
	if err != nil {
		return schedule.Team{}, fmt.Errorf("insert team: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return schedule.Team{}, fmt.Errorf("team id: %w", err)
	}
	return schedule.Team{ID: id, Name: name, Venue: venue}, nil
}

func (db *DB) ListTeams(ctx context.Context, leagueID int64) ([]schedule.Team, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, venue FROM teams WHERE league_id = ? ORDER BY id`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []schedule.Team
	for rows.Next() {
		var team schedule.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Venue); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (db *DB) AddBlackoutDate(ctx context.Context, leagueID int64, date time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blackout_dates (league_id, blackout_date) VALUES (?, ?)`,
		leagueID, date.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("add blackout date: %w", err)
	}
	return nil
}

func (db *DB) RemoveBlackoutDate(ctx context.Context, leagueID int64, date time.Time) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM blackout_dates WHERE league_id = ? AND blackout_date = ?`,
		leagueID, date.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("remove blackout date: %w", err)
	}
	return nil
}

func (db *DB) ListBlackoutDates(ctx context.Context, leagueID int64) ([]time.Time, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT blackout_date FROM blackout_dates WHERE league_id = ? ORDER BY blackout_date`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blackout dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan blackout date: %w", err)
		}
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse blackout date %q: %w", raw, err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// SavePositions replaces the league's position assignment in one
// transaction so readers never observe a broken permutation.
func (db *DB) SavePositions(ctx context.Context, leagueID int64, positions []schedule.TeamPosition) error {
	return db.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_positions WHERE league_id = ?`, leagueID); err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}
		for _, entry := range positions {
			teamID := sql.NullInt64{Int64: entry.TeamID, Valid: !entry.Bye}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_positions (league_id, team_id, position, is_bye) VALUES (?, ?, ?, ?)`,
				leagueID, teamID, entry.Position, entry.Bye,
			); err != nil {
				return fmt.Errorf("insert position %d: %w", entry.Position, err)
			}
		}
		return nil
	})
}

func (db *DB) ListPositions(ctx context.Context, leagueID int64) ([]schedule.TeamPosition, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT p.team_id, COALESCE(t.name, ?), p.position, p.is_bye
		 FROM schedule_positions p
		 LEFT JOIN teams t ON t.id = p.team_id
		 WHERE p.league_id = ?
		 ORDER BY p.position`,
		schedule.ByeTeamName, leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []schedule.TeamPosition
	for rows.Next() {
		var entry schedule.TeamPosition
		var teamID sql.NullInt64
		if err := rows.Scan(&teamID, &entry.TeamName, &entry.Position, &entry.Bye); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		entry.TeamID = teamID.Int64
		positions = append(positions, entry)
	}
	return positions, rows.Err()
}

// SaveSchedule replaces the league's persisted season calendar, flags
// included, in one transaction.
func (db *DB) SaveSchedule(ctx context.Context, leagueID int64, weeks []schedule.WeekEntry) error {
	return db.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_weeks WHERE league_id = ?`, leagueID); err != nil {
			return fmt.Errorf("clear schedule: %w", err)
		}
		for _, week := range weeks {
			result, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_weeks (league_id, week_number, week_name, week_date, week_type) VALUES (?, ?, ?, ?, ?)`,
				leagueID, week.WeekNumber, week.WeekName, week.Date.Format(dateLayout), string(week.Type),
			)
			if err != nil {
				return fmt.Errorf("insert week %d: %w", week.WeekNumber, err)
			}
			weekID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("week id: %w", err)
			}
			for _, flag := range week.Conflicts {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO week_conflicts (schedule_week_id, conflict_type, name, reason, severity, days_away) VALUES (?, ?, ?, ?, ?, ?)`,
					weekID, string(flag.Type), flag.Name, flag.Reason, string(flag.Severity), flag.DaysAway,
				); err != nil {
					return fmt.Errorf("insert conflict for week %d: %w", week.WeekNumber, err)
				}
			}
		}
		return nil
	})
}

func (db *DB) GetSchedule(ctx context.Context, leagueID int64) ([]schedule.WeekEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, week_number, week_name, week_date, week_type FROM schedule_weeks WHERE league_id = ? ORDER BY week_number`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	var weeks []schedule.WeekEntry
	var weekIDs []int64
	for rows.Next() {
		var week schedule.WeekEntry
		var weekID int64
		var rawDate, rawType string
		if err := rows.Scan(&weekID, &week.WeekNumber, &week.WeekName, &rawDate, &rawType); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		week.Date, err = time.Parse(dateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("parse week date %q: %w", rawDate, err)
		}
		week.Type = schedule.WeekType(rawType)
		weeks = append(weeks, week)
		weekIDs = append(weekIDs, weekID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for idx, weekID := range weekIDs {
		flags, err := db.listWeekConflicts(ctx, weekID)
		if err != nil {
			return nil, err
		}
		weeks[idx].Conflicts = flags
	}
	return weeks, nil
}

func (db *DB) listWeekConflicts(ctx context.Context, weekID int64) ([]schedule.ConflictFlag, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT conflict_type, name, reason, severity, days_away FROM week_conflicts WHERE schedule_week_id = ? ORDER BY id`,
		weekID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var flags []schedule.ConflictFlag
	for rows.Next() {
		var flag schedule.ConflictFlag
		var rawType, rawSeverity string
		if err := rows.Scan(&rawType, &flag.Name, &flag.Reason, &rawSeverity, &flag.DaysAway); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		flag.Type = schedule.ConflictType(rawType)
		flag.Severity = schedule.Severity(rawSeverity)
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}

// SeasonLocked reports whether any match in the league has reached a
// status that freezes schedule positions. It queries live state on every
// call; lock state is never cached.
func (db *DB) SeasonLocked(ctx context.Context, leagueID int64) (bool, error) {
	var locked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE league_id = ? AND status IN (?, ?, ?)
		)`,
		leagueID, lockingMatchStatuses[0], lockingMatchStatuses[1], lockingMatchStatuses[2],
	).Scan(&locked)
	if err != nil {
		return false, fmt.Errorf("check season lock: %w", err)
	}
	return locked, nil
}

func (db *DB) CreateMatch(ctx context.Context, match Match) (Match, error) {
	if match.Status == "" {
		match.Status = "scheduled"
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO matches (league_id, week_number, home_position, away_position, status) VALUES (?, ?, ?, ?, ?)`,
		match.LeagueID, match.WeekNumber, match.HomePosition, match.AwayPosition, match.Status,
	)
	if err != nil {
		return Match{}, fmt.Errorf("insert match: %w", err)
	}
	match.ID, err = result.LastInsertId()
	if err != nil {
		return Match{}, fmt.Errorf("match id: %w", err)
	}
	return match, nil
}

func (db *DB) UpdateMatchStatus(ctx context.Context, matchID int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, matchID,
	)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("match rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanLeague(row interface{ Scan(...any) error }) (League, error) {
	var league League
	var rawStart string
	if err := row.Scan(&league.ID, &league.Name, &league.OperatorEmail, &rawStart, &league.SeasonLength, &league.BreakWeeks); err != nil {
		return League{}, err
	}
	start, err := time.Parse(dateLayout, rawStart)
	if err != nil {
		return League{}, fmt.Errorf("parse league start date %q: %w", rawStart, err)
	}
	league.StartDate = start
	return league, nil
}

func truncateToDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
