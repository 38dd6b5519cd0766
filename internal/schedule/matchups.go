package schedule

import (
	"fmt"
	"sort"
)

// Pairing matches two schedule positions for one week. A pairing against
// the BYE position is "no match this week" and stays out of win/loss
// bookkeeping downstream.
type Pairing struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// MatchupTable is one full round-robin rotation for a fixed team count.
// Seasons longer than the rotation repeat it from the top.
type MatchupTable struct {
	TeamCount int         `json:"teamCount"`
	Weeks     [][]Pairing `json:"weeks"`
}

// WeekPairings returns the pairings for a 1-based season week, wrapping
// around the rotation for seasons longer than one pass.
func (t MatchupTable) WeekPairings(week int) []Pairing {
	if week < 1 || len(t.Weeks) == 0 {
		return nil
	}
	return t.Weeks[(week-1)%len(t.Weeks)]
}

// MatchupRegistry holds precomputed round-robin tables keyed by team
// count. Tables are fixed constants rather than generated at call time so
// operators can trust an auditable pairing pattern season over season.
type MatchupRegistry struct {
	tables map[int]MatchupTable
}

// NewMatchupRegistry returns a registry loaded with the built-in tables
// for 4, 6, and 8 teams. Any other count fails closed on Lookup.
func NewMatchupRegistry() *MatchupRegistry {
	r := &MatchupRegistry{tables: make(map[int]MatchupTable)}
	for _, table := range builtinTables {
		if err := r.Register(table); err != nil {
			// Built-in tables are validated by tests; a bad one is a
			// programming error, not a runtime condition.
			panic(err)
		}
	}
	return r
}

// Lookup returns the table for teamCount or a NoMatchupTableError when
// none is registered. There is no approximate fallback.
func (r *MatchupRegistry) Lookup(teamCount int) (MatchupTable, error) {
	table, ok := r.tables[teamCount]
	if !ok {
		return MatchupTable{}, &NoMatchupTableError{TeamCount: teamCount}
	}
	return table, nil
}

// Register adds a table after verifying every week is a perfect matching
// over positions 1..TeamCount. Registering a count twice replaces the
// earlier table, which lets tests inject fakes.
func (r *MatchupRegistry) Register(table MatchupTable) error {
	if table.TeamCount < 2 || table.TeamCount%2 != 0 {
		return fmt.Errorf("matchup table team count must be even and at least 2, got %d", table.TeamCount)
	}
	if len(table.Weeks) == 0 {
		return fmt.Errorf("matchup table for %d teams has no weeks", table.TeamCount)
	}
	for weekIdx, week := range table.Weeks {
		if len(week)*2 != table.TeamCount {
			return fmt.Errorf("week %d of %d-team table has %d pairings, want %d", weekIdx+1, table.TeamCount, len(week), table.TeamCount/2)
		}
		seen := make(map[int]bool, table.TeamCount)
		for _, pairing := range week {
			for _, position := range []int{pairing.Home, pairing.Away} {
				if position < 1 || position > table.TeamCount {
					return fmt.Errorf("week %d of %d-team table references position %d", weekIdx+1, table.TeamCount, position)
				}
				if seen[position] {
					return fmt.Errorf("week %d of %d-team table repeats position %d", weekIdx+1, table.TeamCount, position)
				}
				seen[position] = true
			}
		}
	}
	r.tables[table.TeamCount] = table
	return nil
}

// SupportedCounts lists registered team counts in ascending order.
func (r *MatchupRegistry) SupportedCounts() []int {
	counts := make([]int, 0, len(r.tables))
	for count := range r.tables {
		counts = append(counts, count)
	}
	sort.Ints(counts)
	return counts
}

// builtinTables are circle-method rotations with position 1 fixed. Each
// table covers one full rotation: every position meets every other
// exactly once.
var builtinTables = []MatchupTable{
	{
		TeamCount: 4,
		Weeks: [][]Pairing{
			{{Home: 1, Away: 4}, {Home: 2, Away: 3}},
			{{Home: 1, Away: 3}, {Home: 4, Away: 2}},
			{{Home: 1, Away: 2}, {Home: 3, Away: 4}},
		},
	},
	{
		TeamCount: 6,
		Weeks: [][]Pairing{
			{{Home: 1, Away: 6}, {Home: 2, Away: 5}, {Home: 3, Away: 4}},
			{{Home: 1, Away: 5}, {Home: 6, Away: 4}, {Home: 2, Away: 3}},
			{{Home: 1, Away: 4}, {Home: 5, Away: 3}, {Home: 6, Away: 2}},
			{{Home: 1, Away: 3}, {Home: 4, Away: 2}, {Home: 5, Away: 6}},
			{{Home: 1, Away: 2}, {Home: 3, Away: 6}, {Home: 4, Away: 5}},
		},
	},
	{
		TeamCount: 8,
		Weeks: [][]Pairing{
			{{Home: 1, Away: 8}, {Home: 2, Away: 7}, {Home: 3, Away: 6}, {Home: 4, Away: 5}},
			{{Home: 1, Away: 7}, {Home: 8, Away: 6}, {Home: 2, Away: 5}, {Home: 3, Away: 4}},
			{{Home: 1, Away: 6}, {Home: 7, Away: 5}, {Home: 8, Away: 4}, {Home: 2, Away: 3}},
			{{Home: 1, Away: 5}, {Home: 6, Away: 4}, {Home: 7, Away: 3}, {Home: 8, Away: 2}},
			{{Home: 1, Away: 4}, {Home: 5, Away: 3}, {Home: 6, Away: 2}, {Home: 7, Away: 8}},
			{{Home: 1, Away: 3}, {Home: 4, Away: 2}, {Home: 5, Away: 8}, {Home: 6, Away: 7}},
			{{Home: 1, Away: 2}, {Home: 3, Away: 8}, {Home: 4, Away: 7}, {Home: 5, Away: 6}},
		},
	},
}
