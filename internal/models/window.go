package models

import (
	"fmt"
	"time"
)

// Window is the half-open UTC interval [Start, End) a digest covers
type Window struct {
	Start time.Time
	End   time.Time
}

// PreviousWeek returns the last fully completed week before now:
// the most recent Sunday 00:00 UTC minus seven days, through that Sunday.
// The half-open end means the window covers Sunday through Saturday 23:59:59.
func PreviousWeek(now time.Time) Window {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sunday := midnight.AddDate(0, 0, -int(now.Weekday()))
	return Window{
		Start: sunday.AddDate(0, 0, -7),
		End:   sunday,
	}
}

// LastDays returns the window covering the n days ending at now
func LastDays(now time.Time, n int) Window {
	now = now.UTC().Truncate(time.Second)
	return Window{
		Start: now.AddDate(0, 0, -n),
		End:   now,
	}
}

// Contains reports whether t falls inside the half-open interval
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Validate checks the Start < End invariant
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return fmt.Errorf("invalid window: start %s is not before end %s",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// DateRange formats the covered dates for subject lines and headers,
// e.g. "Jan 05 - Jan 11". The end is displayed inclusively.
func (w Window) DateRange() string {
	last := w.End.Add(-time.Second)
	return w.Start.Format("Jan 02") + " - " + last.Format("Jan 02")
}
