package recurrence

import (
	"time"

	"todo-planner/internal/model"
)

// OnInterval reports whether day lies in an active period of p, counting
// periods from anchor: days for daily, Sunday-started weeks for weekly and
// custom, calendar months for monthly and years for yearly. An interval of 1
// (or unset) accepts every day.
func OnInterval(p model.RecurrencePattern, anchor, day time.Time) bool {
	n := p.Every()
	if n == 1 {
		return true
	}

	var periods int
	switch p.Type {
	case model.RecurWeekly, model.RecurCustom:
		periods = DaysBetween(weekStart(anchor), weekStart(day)) / 7
	case model.RecurMonthly:
		periods = (day.Year()-anchor.Year())*12 + int(day.Month()) - int(anchor.Month())
	case model.RecurYearly:
		periods = day.Year() - anchor.Year()
	default:
		periods = DaysBetween(anchor, day)
	}
	return ((periods%n)+n)%n == 0
}

// weekStart is the Sunday of t's week as a UTC civil date.
func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, time.UTC)
}
