// Package window resolves the inclusive calendar range covered by a
// reporting period that starts at an anchor date, such as the first
// week or first quarter of a movie's run.
package window

import (
	"fmt"
	"time"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
)

// Period selects the length of a window.  The numeric values are part
// of the public API.
type Period int

const (
	Week    Period = 0
	Month   Period = 1
	Quarter Period = 2
	Year    Period = 3
)

func (p Period) String() string {
	switch p {
	case Week:
		return "week"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case Year:
		return "year"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Valid reports whether p is one of the four known periods.
func (p Period) Valid() bool { return p >= Week && p <= Year }

// ParsePeriod converts a request value into a Period.  Unknown values
// are rejected here even though Resolve tolerates them.
func ParsePeriod(v int) (Period, error) {
	p := Period(v)
	if !p.Valid() {
		return 0, apperror.Invalid("period", fmt.Sprintf("must be 0 (week), 1 (month), 2 (quarter) or 3 (year), got %d", v))
	}
	return p, nil
}

// Window is an inclusive range of calendar days.  Start and End are
// midnights in the anchor's location.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar day of t (in the window's
// location) falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := Day(t, w.Start.Location())
	return !d.Before(w.Start) && !d.After(w.End)
}

// Resolve returns the window of the given period starting on the
// anchor's calendar day.  An unknown period falls back to Week.
func Resolve(anchor time.Time, p Period) Window {
	start := Day(anchor, anchor.Location())
	var end time.Time
	switch p {
	case Month:
		end = addMonths(start, 1).AddDate(0, 0, -1)
	case Quarter:
		end = addMonths(start, 3).AddDate(0, 0, -1)
	case Year:
		end = addMonths(start, 12).AddDate(0, 0, -1)
	default:
		end = start.AddDate(0, 0, 6)
	}
	return Window{Start: start, End: end}
}

// ResolveFor is Resolve for an optional anchor.  The boolean is false
// when there is no anchor, e.g. a movie that was never scheduled.
func ResolveFor(anchor *time.Time, p Period) (Window, bool) {
	if anchor == nil {
		return Window{}, false
	}
	return Resolve(*anchor, p), true
}

// Day truncates t to midnight of its calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// addMonths moves t by n calendar months, clamping the day to the end
// of the target month (Jan 31 + 1 month = Feb 28/29) instead of
// spilling into the following month like time.AddDate.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
