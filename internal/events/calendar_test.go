package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmaskell/rackline/internal/schedule"
)

func TestFloatingHolidayArithmetic(t *testing.T) {
	cases := []struct {
		name string
		got  time.Time
		want time.Time
	}{
		{"MLK 2025", nthWeekday(2025, time.January, time.Monday, 3), time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)},
		{"Memorial Day 2025", lastWeekday(2025, time.May, time.Monday), time.Date(2025, time.May, 26, 0, 0, 0, 0, time.UTC)},
		{"Labor Day 2025", nthWeekday(2025, time.September, time.Monday, 1), time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"Thanksgiving 2025", nthWeekday(2025, time.November, time.Thursday, 4), time.Date(2025, time.November, 27, 0, 0, 0, 0, time.UTC)},
		{"Thanksgiving 2026", nthWeekday(2026, time.November, time.Thursday, 4), time.Date(2026, time.November, 26, 0, 0, 0, 0, time.UTC)},
		{"Memorial Day 2026", lastWeekday(2026, time.May, time.Monday), time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if !tc.got.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestEventsBetweenFiltersAndSorts(t *testing.T) {
	calendar := NewCalendar(schedule.ExternalEvent{
		Date: time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
		Name: "State 8-Ball Championship",
		Type: schedule.EventChampionship,
	})

	events := calendar.EventsBetween(
		time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC),
	)
	if len(events) != 2 {
		t.Fatalf("got %d events, want championship + Thanksgiving: %+v", len(events), events)
	}
	if events[0].Name != "State 8-Ball Championship" {
		t.Fatalf("events not sorted by date: %+v", events)
	}
	if events[1].Name != "Thanksgiving" || !events[1].Travel {
		t.Fatalf("expected travel-flagged Thanksgiving, got %+v", events[1])
	}
}

func TestEventsBetweenSpansYears(t *testing.T) {
	calendar := NewCalendar()
	events := calendar.EventsBetween(
		time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
	)

	names := make(map[string]int)
	for _, event := range events {
		names[event.Name]++
	}
	if names["Christmas Day"] != 1 || names["New Year's Eve"] != 1 || names["New Year's Day"] != 1 {
		t.Fatalf("year-boundary window missing holidays: %v", names)
	}
}

func TestEventsBetweenEmptyRange(t *testing.T) {
	calendar := NewCalendar()
	from := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	if events := calendar.EventsBetween(from, from.AddDate(0, 0, -1)); events != nil {
		t.Fatalf("inverted range should yield nil, got %+v", events)
	}
}

func TestLoadCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	content := `championships:
  - name: "State 8-Ball Championship"
    date: "2026-03-14"
    travel: true
  - name: "City Masters"
    date: "2026-05-02"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write events file: %v", err)
	}

	calendar, err := LoadCalendar(path)
	if err != nil {
		t.Fatalf("load calendar: %v", err)
	}
	events := calendar.EventsBetween(
		time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC),
	)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != schedule.EventChampionship || !events[0].Travel {
		t.Fatalf("championship event mismatch: %+v", events[0])
	}
}

func TestLoadCalendarRejectsBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	content := `championships:
  - name: "Broken"
    date: "03/14/2026"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write events file: %v", err)
	}
	if _, err := LoadCalendar(path); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestLoadCalendarMissingFileIsHolidaysOnly(t *testing.T) {
	calendar, err := LoadCalendar(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load calendar: %v", err)
	}
	events := calendar.EventsBetween(
		time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC),
	)
	if len(events) != 1 || events[0].Name != "Independence Day" {
		t.Fatalf("expected Independence Day only, got %+v", events)
	}
}
