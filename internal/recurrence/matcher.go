// Package recurrence decides on which calendar days a recurrence pattern fires.
package recurrence

import (
	"slices"
	"time"

	"todo-planner/internal/model"
)

// Matches reports whether p fires on the calendar day of day. It never fails:
// missing filters and unknown types match every day. EndDate and the todo's
// own due date are range concerns of the caller.
func Matches(p model.RecurrencePattern, day time.Time) bool {
	switch p.Type {
	case model.RecurDaily:
		return true
	case model.RecurWeekly, model.RecurCustom:
		if len(p.DaysOfWeek) == 0 {
			return true
		}
		return slices.Contains(p.DaysOfWeek, int(day.Weekday()))
	case model.RecurMonthly:
		if p.DayOfMonth == 0 {
			return true
		}
		return day.Day() == p.DayOfMonth
	case model.RecurYearly:
		if p.MonthOfYear != 0 && int(day.Month()) != p.MonthOfYear {
			return false
		}
		if p.DayOfMonth != 0 && day.Day() != p.DayOfMonth {
			return false
		}
		return true
	default:
		return true
	}
}
