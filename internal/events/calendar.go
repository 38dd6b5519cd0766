// Package events supplies the external event calendar the conflict
// detector is run against: computed US holidays plus operator-maintained
// championship windows.
package events

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmaskell/rackline/internal/schedule"
)

const dateLayout = "2006-01-02"

// Calendar produces ExternalEvents for a date range. Holidays are
// recomputed per year; championships come from a YAML file the operator
// maintains.
type Calendar struct {
	championships []schedule.ExternalEvent
}

// NewCalendar builds a calendar with the given championship events.
func NewCalendar(championships ...schedule.ExternalEvent) *Calendar {
	return &Calendar{championships: championships}
}

type calendarFile struct {
	Championships []championshipSpec `yaml:"championships"`
}

type championshipSpec struct {
	Name   string `yaml:"name"`
	Date   string `yaml:"date"`
	Travel bool   `yaml:"travel"`
}

// LoadCalendar reads championship windows from a YAML file. A missing
// path yields a calendar with holidays only.
func LoadCalendar(path string) (*Calendar, error) {
	if path == "" {
		return NewCalendar(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCalendar(), nil
		}
		return nil, fmt.Errorf("error reading events file: %w", err)
	}

	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing events file: %w", err)
	}

	championships := make([]schedule.ExternalEvent, 0, len(file.Championships))
	for _, spec := range file.Championships {
		if spec.Name == "" {
			return nil, fmt.Errorf("championship entry is missing a name")
		}
		date, err := time.Parse(dateLayout, spec.Date)
		if err != nil {
			return nil, fmt.Errorf("championship %q has invalid date %q: %w", spec.Name, spec.Date, err)
		}
		championships = append(championships, schedule.ExternalEvent{
			Date:   date,
			Name:   spec.Name,
			Type:   schedule.EventChampionship,
			Travel: spec.Travel,
		})
	}
	return NewCalendar(championships...), nil
}

// EventsBetween returns holidays and championships falling inside the
// inclusive [from, to] date range, ordered by date.
func (c *Calendar) EventsBetween(from, to time.Time) []schedule.ExternalEvent {
	from = dateOnly(from)
	to = dateOnly(to)
	if to.Before(from) {
		return nil
	}

	var events []schedule.ExternalEvent
	for year := from.Year(); year <= to.Year(); year++ {
		events = append(events, holidaysForYear(year)...)
	}
	events = append(events, c.championships...)

	inRange := events[:0]
	for _, event := range events {
		date := dateOnly(event.Date)
		if date.Before(from) || date.After(to) {
			continue
		}
		inRange = append(inRange, event)
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		return inRange[i].Date.Before(inRange[j].Date)
	})
	return inRange
}

// holidaysForYear computes the holidays a pool league cares about. Travel
// marks the ones that empty bar tables because people leave town.
func holidaysForYear(year int) []schedule.ExternalEvent {
	return []schedule.ExternalEvent{
		holiday("New Year's Day", time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true),
		holiday("Martin Luther King Jr. Day", nthWeekday(year, time.January, time.Monday, 3), false),
		holiday("Memorial Day", lastWeekday(year, time.May, time.Monday), true),
		holiday("Independence Day", time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC), true),
		holiday("Labor Day", nthWeekday(year, time.September, time.Monday, 1), true),
		holiday("Halloween", time.Date(year, time.October, 31, 0, 0, 0, 0, time.UTC), false),
		holiday("Thanksgiving", nthWeekday(year, time.November, time.Thursday, 4), true),
		holiday("Christmas Eve", time.Date(year, time.December, 24, 0, 0, 0, 0, time.UTC), true),
		holiday("Christmas Day", time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC), true),
		holiday("New Year's Eve", time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), false),
	}
}

func holiday(name string, date time.Time, travel bool) schedule.ExternalEvent {
	return schedule.ExternalEvent{
		Date:   date,
		Name:   name,
		Type:   schedule.EventHoliday,
		Travel: travel,
	}
}

// nthWeekday returns the nth occurrence of a weekday in a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

func dateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
