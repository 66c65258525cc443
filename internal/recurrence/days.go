package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"todo-planner/internal/model"
)

// DayOf returns the first instant of t's calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return StartOfDay(y, m, d, loc)
}

// StartOfDay returns the first instant of the civil date y-m-d in loc. That
// is midnight, except in zones whose DST switch skips midnight, where the day
// starts at the end of the gap. Out-of-range values normalize like time.Date.
func StartOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if ty, tm, td := t.Date(); ty == y && tm == m && td == d {
		return t
	}
	// Midnight fell into the gap and resolved to the previous evening.
	if _, end := t.ZoneBounds(); !end.IsZero() {
		return end.In(loc)
	}
	return t.Add(time.Hour)
}

// AddDays moves day by n calendar days in loc.
func AddDays(day time.Time, n int, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return StartOfDay(y, m, d+n, loc)
}

func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(model.DayLayout)
}

// ParseDate accepts a calendar date (2025-06-15) or an RFC 3339 instant and
// returns midnight of that day in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if day, err := time.Parse(model.DayLayout, raw); err == nil {
		y, m, d := day.Date()
		return StartOfDay(y, m, d, loc), nil
	}
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
	}
	return DayOf(instant, loc), nil
}

// DaysBetween counts calendar days from a to b, ignoring DST shifts.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ParseClock parses an HH:MM time of day.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
