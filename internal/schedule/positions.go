package schedule

import (
	"context"
	"math/rand"
)

// ByeTeamName labels the synthetic entrant padding an odd roster.
const ByeTeamName = "BYE"

// LockCheck reports whether a season's positions are locked. It is
// re-queried on every mutation so the engine never caches lock state;
// the truth lives with the match-status source.
type LockCheck func(ctx context.Context, seasonID int64) (bool, error)

// PositionAssigner maintains the bijection between a season's teams and
// schedule positions 1..effectiveCount. It holds no position state of its
// own; callers pass the current assignment in and get the new one back.
type PositionAssigner struct {
	seasonID int64
	locked   LockCheck
}

// NewPositionAssigner builds an assigner for one season. The lock check
// is required; an assigner that cannot tell whether play has started must
// not hand out reassignments.
func NewPositionAssigner(seasonID int64, locked LockCheck) *PositionAssigner {
	return &PositionAssigner{seasonID: seasonID, locked: locked}
}

// Locked re-queries the injected match-status predicate.
func (a *PositionAssigner) Locked(ctx context.Context) (bool, error) {
	if a.locked == nil {
		return false, nil
	}
	return a.locked(ctx, a.seasonID)
}

// AssignSequential assigns positions in registration order. An odd roster
// gets a BYE at the final position.
func (a *PositionAssigner) AssignSequential(ctx context.Context, teams []Team) ([]TeamPosition, error) {
	if err := a.checkUnlocked(ctx); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, &ValidationError{Field: "teams", Reason: "are required"}
	}
	positions := make([]TeamPosition, 0, len(teams)+1)
	for idx, team := range teams {
		positions = append(positions, TeamPosition{
			TeamID:   team.ID,
			TeamName: team.Name,
			Position: idx + 1,
		})
	}
	return padWithBye(positions), nil
}

// Shuffle assigns a uniformly random permutation of positions to remove
// matchup bias. The BYE, when present, keeps the final position.
func (a *PositionAssigner) Shuffle(ctx context.Context, teams []Team) ([]TeamPosition, error) {
	positions, err := a.AssignSequential(ctx, teams)
	if err != nil {
		return nil, err
	}
	realCount := len(teams)
	order := rand.Perm(realCount)
	shuffled := make([]TeamPosition, len(positions))
	copy(shuffled, positions)
	for idx, target := range order {
		shuffled[target] = positions[idx]
		shuffled[target].Position = target + 1
	}
	return shuffled, nil
}

// SetPosition moves one team to newPosition and swaps whoever held that
// slot into the moved team's old one, so the permutation invariant is
// never broken. The BYE cannot be moved or displaced.
func (a *PositionAssigner) SetPosition(ctx context.Context, current []TeamPosition, teamID int64, newPosition int) ([]TeamPosition, error) {
	if err := a.checkUnlocked(ctx); err != nil {
		return nil, err
	}
	if newPosition < 1 || newPosition > len(current) {
		return nil, &ValidationError{Field: "position", Reason: "is out of range"}
	}

	fromIdx, toIdx := -1, -1
	for idx, entry := range current {
		if !entry.Bye && entry.TeamID == teamID {
			fromIdx = idx
		}
		if entry.Position == newPosition {
			toIdx = idx
		}
	}
	if fromIdx == -1 {
		return nil, &ValidationError{Field: "team", Reason: "is not assigned a position"}
	}
	if toIdx == -1 {
		return nil, &ValidationError{Field: "position", Reason: "is not assigned"}
	}
	if current[toIdx].Bye {
		return nil, &ValidationError{Field: "position", Reason: "is reserved for the bye"}
	}

	updated := make([]TeamPosition, len(current))
	copy(updated, current)
	updated[fromIdx].Position, updated[toIdx].Position = updated[toIdx].Position, updated[fromIdx].Position
	updated[fromIdx], updated[toIdx] = updated[toIdx], updated[fromIdx]
	return updated, nil
}

func (a *PositionAssigner) checkUnlocked(ctx context.Context) error {
	locked, err := a.Locked(ctx)
	if err != nil {
		return err
	}
	if locked {
		return &PositionsLockedError{SeasonID: a.seasonID}
	}
	return nil
}

// padWithBye appends a BYE entry when the roster is odd so the effective
// count is always even.
func padWithBye(positions []TeamPosition) []TeamPosition {
	if len(positions)%2 == 0 {
		return positions
	}
	return append(positions, TeamPosition{
		TeamName: ByeTeamName,
		Position: len(positions) + 1,
		Bye:      true,
	})
}

// EffectiveTeamCount rounds an odd roster size up to account for the
// synthetic BYE.
func EffectiveTeamCount(teamCount int) int {
	if teamCount%2 == 1 {
		return teamCount + 1
	}
	return teamCount
}
