package model

import "time"

// DayLayout is the calendar-day format used for scheduled dates and range bounds.
const DayLayout = "2006-01-02"

// CompletionRecord resolves one occurrence of a todo. (TodoID, ScheduledDate) is
// a natural key: there is at most one record per todo and day.
type CompletionRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index" json:"userId"`
	TodoID        string     `gorm:"index:idx_completion_key,unique;not null" json:"todoId"`
	ScheduledDate string     `gorm:"index:idx_completion_key,unique;size:10;not null" json:"scheduledDate"`
	CompletedAt   *time.Time `json:"completedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// OccurrenceStatus is derived for each expected occurrence.
type OccurrenceStatus string

const (
	StatusCompleted OccurrenceStatus = "completed"
	StatusMissed    OccurrenceStatus = "missed"
	StatusPending   OccurrenceStatus = "pending"
)

// Occurrence is one day on which a recurring todo fires. It is never stored.
type Occurrence struct {
	ID                  string           `json:"id"`
	TodoID              string           `json:"todoId"`
	TodoText            string           `json:"todoText"`
	ScheduledDate       string           `json:"scheduledDate"`
	CompletedAt         *time.Time       `json:"completedAt"`
	Status              OccurrenceStatus `json:"status"`
	HasCompletionRecord bool             `json:"hasCompletionRecord"`
}

// DailyStats aggregates a single calendar day.
type DailyStats struct {
	Date               string `json:"date"`
	RegularCompleted   int    `json:"regularCompleted"`
	RecurringCompleted int    `json:"recurringCompleted"`
	RecurringMissed    int    `json:"recurringMissed"`
}

func (d DailyStats) Completed() int {
	return d.RegularCompleted + d.RecurringCompleted
}

func (d DailyStats) Empty() bool {
	return d.RegularCompleted == 0 && d.RecurringCompleted == 0 && d.RecurringMissed == 0
}

// AnalyticsData aggregates a date range.
type AnalyticsData struct {
	TotalRegularCompleted   int          `json:"totalRegularCompleted"`
	TotalRecurringCompleted int          `json:"totalRecurringCompleted"`
	TotalRecurringMissed    int          `json:"totalRecurringMissed"`
	CompletionRate          int          `json:"completionRate"`
	CurrentStreak           int          `json:"currentStreak"`
	DailyBreakdown          []DailyStats `json:"dailyBreakdown"`
}
