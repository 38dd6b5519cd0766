package schedule

import (
	"fmt"
	"time"
)

// DefaultSeasonEndBreakWeeks is the break between the last regular week
// and playoffs when the caller does not specify one.
const DefaultSeasonEndBreakWeeks = 1

// maxCalendarWeeks bounds one generation walk at about two seasons of
// wall-clock time. Blackout lists have no enforced size limit, so the
// walk refuses to run away instead.
const maxCalendarWeeks = 520

// GenerateSeason walks the calendar one week at a time from startDate,
// emitting seasonLength regular weeks, skipping blackout dates without
// consuming the regular-week budget, then breakWeeks week-off entries and
// exactly one playoffs entry. Conflicts are left empty for the detector
// to fill. Input is validated up front; no partial schedule is returned.
func GenerateSeason(startDate time.Time, seasonLength int, blackoutDates []time.Time, breakWeeks int) ([]WeekEntry, error) {
	if startDate.IsZero() {
		return nil, &ValidationError{Field: "start date", Reason: "is required"}
	}
	if seasonLength < 1 {
		return nil, &ValidationError{Field: "season length", Reason: "must be at least 1"}
	}
	if breakWeeks < 0 {
		return nil, &ValidationError{Field: "break weeks", Reason: "must be 0 or greater"}
	}

	blackouts := make(map[string]bool, len(blackoutDates))
	for _, date := range blackoutDates {
		blackouts[dateKey(date)] = true
	}

	weeks := make([]WeekEntry, 0, seasonLength+breakWeeks+1)
	date := truncateDate(startDate)
	weekNumber := 1
	regularCount := 0
	for walked := 0; regularCount < seasonLength; walked++ {
		if walked >= maxCalendarWeeks {
			return nil, &ValidationError{Field: "blackout dates", Reason: fmt.Sprintf("push the season past the %d-week generation horizon", maxCalendarWeeks)}
		}
		if blackouts[dateKey(date)] {
			date = date.AddDate(0, 0, 7)
			continue
		}
		weeks = append(weeks, WeekEntry{
			WeekNumber: weekNumber,
			WeekName:   fmt.Sprintf("Week %d", weekNumber),
			Date:       date,
			Type:       WeekRegular,
		})
		weekNumber++
		regularCount++
		date = date.AddDate(0, 0, 7)
	}

	// Break and playoff weeks are a straight calendar walk; blackouts
	// landing on them are left for the conflict review pass.
	for i := 0; i < breakWeeks; i++ {
		weeks = append(weeks, WeekEntry{
			WeekNumber: weekNumber,
			WeekName:   "Week Off",
			Date:       date,
			Type:       WeekOff,
		})
		weekNumber++
		date = date.AddDate(0, 0, 7)
	}
	weeks = append(weeks, WeekEntry{
		WeekNumber: weekNumber,
		WeekName:   "Playoffs",
		Date:       date,
		Type:       WeekPlayoffs,
	})
	return weeks, nil
}

func dateKey(value time.Time) string {
	return value.Format("2006-01-02")
}
