package model

import "time"

// Todo is a single item in the planner. A todo with a recurrence pattern is
// resolved per occurrence through completion records instead of Completed.
type Todo struct {
	ID          string             `gorm:"primaryKey" json:"id"`
	UserID      uint               `gorm:"index" json:"userId"`
	FolderID    *uint              `gorm:"index" json:"folderId,omitempty"`
	Text        string             `json:"text"`
	Completed   bool               `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	ReminderAt  *time.Time         `json:"reminderAt,omitempty"`
	Recurrence  *RecurrencePattern `gorm:"type:text;serializer:json" json:"recurringPattern,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (t Todo) IsRecurring() bool {
	return t.Recurrence != nil
}
