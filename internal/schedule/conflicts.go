package schedule

import "fmt"

// conflictWindowDays is the inclusive proximity window: events farther
// than this from every week produce no flag at all.
const conflictWindowDays = 4

// AnnotateConflicts returns a copy of weeks with conflict flags filled in
// from events. Assignment runs event-first: each event attaches to its
// single nearest week within the window, so adjacent weeks never double
// count one event, while one week can legitimately carry flags from
// several events. The input slice is not mutated and the schedule itself
// is never changed; rescheduling is a human decision.
func AnnotateConflicts(weeks []WeekEntry, events []ExternalEvent) []WeekEntry {
	annotated := make([]WeekEntry, len(weeks))
	copy(annotated, weeks)
	for idx := range annotated {
		annotated[idx].Conflicts = nil
	}

	// Pass 1: event -> nearest week. Ties prefer the week before the
	// event; an earlier warning is more actionable.
	for _, event := range events {
		weekIdx, signedDays, ok := nearestWeek(annotated, event)
		if !ok {
			continue
		}
		annotated[weekIdx].Conflicts = append(annotated[weekIdx].Conflicts, buildFlag(event, signedDays))
	}
	return annotated
}

// nearestWeek picks the week closest to the event within the window.
// signedDays is positive when the event falls after the week's date.
func nearestWeek(weeks []WeekEntry, event ExternalEvent) (weekIdx, signedDays int, ok bool) {
	bestIdx := -1
	bestSigned := 0
	for idx, week := range weeks {
		signed := daysBetween(week.Date, event.Date)
		if abs(signed) > conflictWindowDays {
			continue
		}
		if bestIdx == -1 || abs(signed) < abs(bestSigned) {
			bestIdx, bestSigned = idx, signed
			continue
		}
		if abs(signed) == abs(bestSigned) && signed > 0 && bestSigned < 0 {
			bestIdx, bestSigned = idx, signed
		}
	}
	if bestIdx == -1 {
		return 0, 0, false
	}
	return bestIdx, bestSigned, true
}

func buildFlag(event ExternalEvent, signedDays int) ConflictFlag {
	daysAway := abs(signedDays)
	return ConflictFlag{
		Type:     ConflictType(event.Type),
		Name:     fmt.Sprintf("%s (%s)", event.Name, timingPhrase(event, signedDays)),
		Reason:   flagReason(event, daysAway),
		Severity: flagSeverity(event, daysAway),
		DaysAway: daysAway,
	}
}

// timingPhrase places the event relative to league night: the event's
// weekday plus before/after, or "same day".
func timingPhrase(event ExternalEvent, signedDays int) string {
	if signedDays == 0 {
		return "same day"
	}
	weekday := event.Date.Weekday().String()
	if signedDays > 0 {
		return weekday + " after"
	}
	return weekday + " before"
}

func flagReason(event ExternalEvent, daysAway int) string {
	if event.Travel {
		return "travel holiday, plan for reduced attendance"
	}
	if daysAway == 0 {
		return "falls on league night"
	}
	if daysAway == 1 {
		return "1 day from league night"
	}
	return fmt.Sprintf("%d days from league night", daysAway)
}

// flagSeverity grades proximity. A travel holiday anywhere inside the
// window is critical even at the edge.
func flagSeverity(event ExternalEvent, daysAway int) Severity {
	if event.Travel || daysAway == 0 {
		return SeverityCritical
	}
	switch daysAway {
	case 1:
		return SeverityHigh
	case 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
