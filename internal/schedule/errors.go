package schedule

import "fmt"

// ValidationError reports malformed generation or assignment input. No
// partial result accompanies it; callers get the error before any work
// begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// NoMatchupTableError means no precomputed pairing table exists for the
// requested team count. Callers must disable schedule generation rather
// than approximate a pairing.
type NoMatchupTableError struct {
	TeamCount int
}

func (e *NoMatchupTableError) Error() string {
	return fmt.Sprintf("no matchup table for %d teams", e.TeamCount)
}

// PositionsLockedError rejects position reassignment after any match in
// the season has started or finished. Match results are derived from
// pairing positions, so moving teams after play begins would corrupt
// historical matchups.
type PositionsLockedError struct {
	SeasonID int64
}

func (e *PositionsLockedError) Error() string {
	return fmt.Sprintf("positions for season %d are locked: matches have been played", e.SeasonID)
}
