package engine

import (
	"time"

	"todo-planner/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func recurringTodo(id string, p model.RecurrencePattern, due *time.Time) model.Todo {
	return model.Todo{ID: id, Text: "todo " + id, DueDate: due, Recurrence: &p}
}

func completed(todoID, day string, at time.Time) model.CompletionRecord {
	return model.CompletionRecord{TodoID: todoID, ScheduledDate: day, CompletedAt: &at}
}

func dates(occs []model.Occurrence) []string {
	out := make([]string, len(occs))
	for i, o := range occs {
		out[i] = o.ScheduledDate
	}
	return out
}
