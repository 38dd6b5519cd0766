package schedule

import (
	"errors"
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSeasonShape(t *testing.T) {
	weeks, err := GenerateSeason(date(2025, time.January, 7), 16, nil, DefaultSeasonEndBreakWeeks)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(weeks) != 18 {
		t.Fatalf("got %d weeks, want 18", len(weeks))
	}

	counts := make(map[WeekType]int)
	for idx, week := range weeks {
		counts[week.Type]++
		if week.WeekNumber != idx+1 {
			t.Fatalf("week %d numbered %d", idx+1, week.WeekNumber)
		}
		if idx > 0 && !week.Date.After(weeks[idx-1].Date) {
			t.Fatalf("week %d date %v not after previous", week.WeekNumber, week.Date)
		}
		if len(week.Conflicts) != 0 {
			t.Fatalf("generator should leave conflicts empty")
		}
	}
	if counts[WeekRegular] != 16 || counts[WeekOff] != 1 || counts[WeekPlayoffs] != 1 {
		t.Fatalf("week type counts wrong: %v", counts)
	}
	if weeks[len(weeks)-1].Type != WeekPlayoffs {
		t.Fatalf("playoffs must come last")
	}
}

func TestBlackoutShiftsPlayoffsWithoutEatingRegularWeeks(t *testing.T) {
	start := date(2025, time.January, 7)
	base, err := GenerateSeason(start, 8, nil, 1)
	if err != nil {
		t.Fatalf("generate base: %v", err)
	}
	shifted, err := GenerateSeason(start, 8, []time.Time{date(2025, time.January, 21)}, 1)
	if err != nil {
		t.Fatalf("generate shifted: %v", err)
	}

	countRegular := func(weeks []WeekEntry) int {
		regular := 0
		for _, week := range weeks {
			if week.Type == WeekRegular {
				regular++
			}
		}
		return regular
	}
	if countRegular(base) != 8 || countRegular(shifted) != 8 {
		t.Fatalf("blackout must not change the regular-week count")
	}

	basePlayoffs := base[len(base)-1].Date
	shiftedPlayoffs := shifted[len(shifted)-1].Date
	if !shiftedPlayoffs.Equal(basePlayoffs.AddDate(0, 0, 7)) {
		t.Fatalf("playoffs moved to %v, want %v", shiftedPlayoffs, basePlayoffs.AddDate(0, 0, 7))
	}
}

func TestGenerateSeasonConcreteScenario(t *testing.T) {
	weeks, err := GenerateSeason(date(2025, time.January, 7), 2, []time.Time{date(2025, time.January, 14)}, 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []struct {
		weekNumber int
		date       time.Time
		weekType   WeekType
	}{
		{1, date(2025, time.January, 7), WeekRegular},
		{2, date(2025, time.January, 21), WeekRegular},
		{3, date(2025, time.January, 28), WeekOff},
		{4, date(2025, time.February, 4), WeekPlayoffs},
	}
	if len(weeks) != len(want) {
		t.Fatalf("got %d weeks, want %d", len(weeks), len(want))
	}
	for idx, expect := range want {
		got := weeks[idx]
		if got.WeekNumber != expect.weekNumber || !got.Date.Equal(expect.date) || got.Type != expect.weekType {
			t.Fatalf("week %d: got {%d %v %s}, want {%d %v %s}",
				idx+1, got.WeekNumber, got.Date, got.Type, expect.weekNumber, expect.date, expect.weekType)
		}
	}
}

func TestGenerateSeasonIsIdempotent(t *testing.T) {
	start := date(2025, time.March, 4)
	blackouts := []time.Time{date(2025, time.March, 18), date(2025, time.April, 1)}

	first, err := GenerateSeason(start, 12, blackouts, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := GenerateSeason(start, 12, blackouts, 2)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("length changed between runs")
	}
	for idx := range first {
		if first[idx].WeekNumber != second[idx].WeekNumber ||
			!first[idx].Date.Equal(second[idx].Date) ||
			first[idx].Type != second[idx].Type ||
			first[idx].WeekName != second[idx].WeekName {
			t.Fatalf("week %d differs between identical runs", idx+1)
		}
	}
}

func TestGenerateSeasonValidation(t *testing.T) {
	var validationErr *ValidationError

	_, err := GenerateSeason(time.Time{}, 10, nil, 1)
	if !errors.As(err, &validationErr) {
		t.Fatalf("zero start date: expected ValidationError, got %v", err)
	}
	_, err = GenerateSeason(date(2025, time.January, 7), 0, nil, 1)
	if !errors.As(err, &validationErr) {
		t.Fatalf("zero season length: expected ValidationError, got %v", err)
	}
	_, err = GenerateSeason(date(2025, time.January, 7), 10, nil, -1)
	if !errors.As(err, &validationErr) {
		t.Fatalf("negative break weeks: expected ValidationError, got %v", err)
	}
}

func TestMultipleBreakWeeksNumberSequentially(t *testing.T) {
	weeks, err := GenerateSeason(date(2025, time.January, 7), 3, nil, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(weeks) != 6 {
		t.Fatalf("got %d weeks, want 6", len(weeks))
	}
	if weeks[3].Type != WeekOff || weeks[4].Type != WeekOff || weeks[5].Type != WeekPlayoffs {
		t.Fatalf("tail types wrong: %s %s %s", weeks[3].Type, weeks[4].Type, weeks[5].Type)
	}
	if weeks[5].WeekNumber != 6 {
		t.Fatalf("playoffs numbered %d, want 6", weeks[5].WeekNumber)
	}
}
