package model

// RecurrenceType selects how a pattern fires.
type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurYearly  RecurrenceType = "yearly"
	RecurCustom  RecurrenceType = "custom"
)

// RecurrencePattern is the schedule attached to a recurring todo.
// Zero values mean "absent": DayOfMonth 0 and MonthOfYear 0 are unset,
// an empty EndDate never ends, an empty NotifyAt never reminds.
type RecurrencePattern struct {
	Type        RecurrenceType `json:"type"`
	Interval    int            `json:"interval,omitempty"`
	DaysOfWeek  []int          `json:"daysOfWeek,omitempty"`
	DayOfMonth  int            `json:"dayOfMonth,omitempty"`
	MonthOfYear int            `json:"monthOfYear,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`  // YYYY-MM-DD
	NotifyAt    string         `json:"notifyAt,omitempty"` // HH:mm
}

// Every returns the effective interval (at least 1).
func (p RecurrencePattern) Every() int {
	if p.Interval < 1 {
		return 1
	}
	return p.Interval
}
