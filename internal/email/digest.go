package email

import (
	"fmt"
	"strings"

	"github.com/dmaskell/rackline/internal/schedule"
)

// ConflictDigestSubject builds the subject line for a league's conflict
// digest.
func ConflictDigestSubject(leagueName string) string {
	return fmt.Sprintf("[Rackline] Schedule conflicts for %s", leagueName)
}

// ConflictDigestBody renders a plain-text summary of every flagged week.
// Weeks without conflicts are omitted; an empty digest means the caller
// should not send at all.
func ConflictDigestBody(leagueName string, weeks []schedule.WeekEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming schedule conflicts for %s:\n", leagueName)

	flagged := 0
	for _, week := range weeks {
		if len(week.Conflicts) == 0 {
			continue
		}
		flagged++
		fmt.Fprintf(&b, "\n%s (%s)\n", week.WeekName, week.Date.Format("Mon Jan 2, 2006"))
		for _, flag := range week.Conflicts {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", strings.ToUpper(string(flag.Severity)), flag.Name, flag.Reason)
		}
	}
	if flagged == 0 {
		return ""
	}

	b.WriteString("\nReview the schedule and add blackout dates if needed.\n")
	return b.String()
}
