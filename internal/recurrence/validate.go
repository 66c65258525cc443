package recurrence

import (
	"errors"
	"fmt"
	"time"

	"todo-planner/internal/model"
)

var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// Validate checks user input before a pattern is stored. Matching stays total
// for anything that slips through.
func Validate(p model.RecurrencePattern) error {
	switch p.Type {
	case model.RecurDaily, model.RecurWeekly, model.RecurMonthly, model.RecurYearly, model.RecurCustom:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPattern, p.Type)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidPattern)
	}
	for _, dow := range p.DaysOfWeek {
		if dow < 0 || dow > 6 {
			return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidPattern, dow)
		}
	}
	if p.DayOfMonth < 0 || p.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidPattern, p.DayOfMonth)
	}
	if p.MonthOfYear < 0 || p.MonthOfYear > 12 {
		return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPattern, p.MonthOfYear)
	}
	if p.EndDate != "" {
		if _, err := time.Parse(model.DayLayout, p.EndDate); err != nil {
			return fmt.Errorf("%w: end date %q", ErrInvalidPattern, p.EndDate)
		}
	}
	if p.NotifyAt != "" {
		if _, _, err := ParseClock(p.NotifyAt); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
	}
	return nil
}
