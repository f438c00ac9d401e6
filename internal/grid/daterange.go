package grid

import (
	"time"

	"flexitime/internal/domain/rollcall"
)

// DateWindow is the inclusive rolling date span shown by the grid. Both bounds
// are UTC midnights.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = midnight(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NewWindow starts at the week start containing today and spans days.
func NewWindow(today time.Time, days int) DateWindow {
	if days < 1 {
		days = 1
	}
	start := WeekStart(today)
	return DateWindow{Start: start, End: start.AddDate(0, 0, days-1)}
}

func (w DateWindow) TotalDays() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w DateWindow) Contains(t time.Time) bool {
	t = midnight(t)
	return !t.Before(w.Start) && !t.After(w.End)
}

// ExpandLeft grows the window by up to days on the left without exceeding
// maxDays total. Returns the new window and how many days were added.
func (w DateWindow) ExpandLeft(days, maxDays int) (DateWindow, int) {
	days = w.clampGrowth(days, maxDays)
	if days <= 0 {
		return w, 0
	}
	w.Start = w.Start.AddDate(0, 0, -days)
	return w, days
}

// ExpandRight grows the window by up to days on the right without exceeding
// maxDays total.
func (w DateWindow) ExpandRight(days, maxDays int) (DateWindow, int) {
	days = w.clampGrowth(days, maxDays)
	if days <= 0 {
		return w, 0
	}
	w.End = w.End.AddDate(0, 0, days)
	return w, days
}

func (w DateWindow) clampGrowth(days, maxDays int) int {
	if days < 0 {
		return 0
	}
	if room := maxDays - w.TotalDays(); days > room {
		return room
	}
	return days
}

// Days lists every date in the window.
func (w DateWindow) Days() []time.Time {
	days := make([]time.Time, 0, w.TotalDays())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// VisibleDays lists the dates shown as columns. With weekends hidden the
// column indexing skips Saturdays and Sundays entirely.
func (w DateWindow) VisibleDays(showWeekends bool) []time.Time {
	days := make([]time.Time, 0, w.TotalDays())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		if !showWeekends && IsWeekend(d) {
			continue
		}
		days = append(days, d)
	}
	return days
}

func formatDate(t time.Time) string {
	return t.Format(rollcall.DateFormat)
}
