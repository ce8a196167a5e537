package dates

import (
	"fmt"
	"math"
	"time"
)

const (
	Layout = "2006-01-02"
	day    = 24 * time.Hour
)

// DateOnly truncates t to its calendar date in t's own location, returned as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the calendar week containing t.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 … Sunday=6
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday closing the week that starts at WeekStart(t).
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// SameWeek reports whether a and b fall into the same Monday-based week.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b))
}

// WeekLabel renders the week of t as "Jan 06 – Jan 12, 2025".
func WeekLabel(t time.Time) string {
	start := WeekStart(t)
	end := start.AddDate(0, 0, 6)
	if start.Year() != end.Year() {
		return fmt.Sprintf("%s – %s", start.Format("Jan 02, 2006"), end.Format("Jan 02, 2006"))
	}
	return fmt.Sprintf("%s – %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
}

// WeeksBetween lists the week starts touched by [from, to], ascending.
func WeeksBetween(from, to time.Time) []time.Time {
	first := WeekStart(from)
	last := WeekStart(to)
	if last.Before(first) {
		return nil
	}

	var out []time.Time
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		out = append(out, w)
	}
	return out
}

// DayDiffCeil is ceil((b - a) in days).
func DayDiffCeil(a, b time.Time) int {
	return int(math.Ceil(float64(b.Sub(a)) / float64(day)))
}

// DayDiffFloor is floor((b - a) in days).
func DayDiffFloor(a, b time.Time) int {
	return int(math.Floor(float64(b.Sub(a)) / float64(day)))
}

// Parse accepts the date and date-time shapes seen across the PMS API,
// spreadsheet exports and pasted tables.
func Parse(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		Layout,
		"02/01/2006 15:04",
		"02/01/2006",
		"2/1/2006",
		"02.01.2006",
		"Jan 2, 2006",
		"2 Jan 2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
