package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"todo-planner/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pattern model.RecurrencePattern
		wantErr bool
	}{
		{"daily", model.RecurrencePattern{Type: model.RecurDaily}, false},
		{"full weekly", model.RecurrencePattern{Type: model.RecurWeekly, Interval: 2, DaysOfWeek: []int{0, 6}, EndDate: "2025-12-31", NotifyAt: "08:30"}, false},
		{"unknown type", model.RecurrencePattern{Type: "hourly"}, true},
		{"negative interval", model.RecurrencePattern{Type: model.RecurDaily, Interval: -1}, true},
		{"weekday out of range", model.RecurrencePattern{Type: model.RecurCustom, DaysOfWeek: []int{7}}, true},
		{"day of month out of range", model.RecurrencePattern{Type: model.RecurMonthly, DayOfMonth: 32}, true},
		{"month out of range", model.RecurrencePattern{Type: model.RecurYearly, MonthOfYear: 13}, true},
		{"bad end date", model.RecurrencePattern{Type: model.RecurDaily, EndDate: "31.12.2025"}, true},
		{"bad notify time", model.RecurrencePattern{Type: model.RecurDaily, NotifyAt: "25:00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pattern)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				return
			}
			assert.NoError(t, err)
		})
	}
}
