package schedule

import "time"

// WeekType classifies a generated calendar week.
type WeekType string

const (
	WeekRegular  WeekType = "regular"
	WeekOff      WeekType = "week-off"
	WeekPlayoffs WeekType = "playoffs"
)

// Severity ranks how disruptive a nearby external event is for a week.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ConflictType identifies the kind of external event behind a flag.
type ConflictType string

const (
	ConflictHoliday      ConflictType = "holiday"
	ConflictChampionship ConflictType = "championship"
)

// EventType mirrors ConflictType on the event side of the boundary.
type EventType string

const (
	EventHoliday      EventType = "holiday"
	EventChampionship EventType = "championship"
)

// Team is the roster entry the scheduling engine works with.
type Team struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Venue string `json:"venue,omitempty"`
}

// TeamPosition binds a team to a schedule position for one season.
// A BYE entry has no team and pads an odd roster to an even count.
type TeamPosition struct {
	TeamID   int64  `json:"teamId,omitempty"`
	TeamName string `json:"teamName"`
	Position int    `json:"position"`
	Bye      bool   `json:"bye,omitempty"`
}

// ConflictFlag annotates a week with one nearby external event.
type ConflictFlag struct {
	Type     ConflictType `json:"type"`
	Name     string       `json:"name"`
	Reason   string       `json:"reason"`
	Severity Severity     `json:"severity"`
	DaysAway int          `json:"daysAway"`
}

// WeekEntry is one row of a generated season calendar.
type WeekEntry struct {
	WeekNumber int            `json:"weekNumber"`
	WeekName   string         `json:"weekName"`
	Date       time.Time      `json:"date"`
	Type       WeekType       `json:"type"`
	Conflicts  []ConflictFlag `json:"conflicts"`
}

// ExternalEvent is a dated event supplied by a calendar source. Travel
// marks a holiday likely to reduce attendance due to travel.
type ExternalEvent struct {
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Type   EventType `json:"type"`
	Travel bool      `json:"travel,omitempty"`
}

// truncateDate drops the time-of-day portion, keeping the location.
func truncateDate(value time.Time) time.Time {
	loc := value.Location()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, loc)
}

// daysBetween returns the whole-day span from a to b, negative when b
// precedes a. Both arguments are compared by calendar date only.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
