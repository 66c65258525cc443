package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"todo-planner/internal/model"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToRRule builds the RFC 5545 rule that fires on the same days as Matches and
// OnInterval, starting at dtstart's day and stopping after p.EndDate.
func ToRRule(p model.RecurrencePattern, dtstart time.Time, loc *time.Location) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart:  DayOf(dtstart, loc),
		Interval: p.Every(),
		Wkst:     rrule.SU,
	}

	switch p.Type {
	case model.RecurWeekly, model.RecurCustom:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = byWeekday(p.DaysOfWeek)
	case model.RecurMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = byMonthDay(p.DayOfMonth)
	case model.RecurYearly:
		opt.Freq = rrule.YEARLY
		// BYMONTHDAY is always explicit so that YEARLY never falls back to dtstart's day.
		opt.Bymonthday = byMonthDay(p.DayOfMonth)
		if p.MonthOfYear != 0 {
			opt.Bymonth = []int{p.MonthOfYear}
		}
	default:
		opt.Freq = rrule.DAILY
	}

	if p.EndDate != "" {
		until, err := ParseDate(p.EndDate, loc)
		if err != nil {
			return nil, fmt.Errorf("parse end date: %w", err)
		}
		opt.Until = until
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return rule, nil
}

func byWeekday(days []int) []rrule.Weekday {
	if len(days) == 0 {
		return rruleWeekdays[:]
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(rruleWeekdays) {
			out = append(out, rruleWeekdays[d])
		}
	}
	return out
}

func byMonthDay(day int) []int {
	if day != 0 {
		return []int{day}
	}
	all := make([]int, 31)
	for i := range all {
		all[i] = i + 1
	}
	return all
}
