// Package engine expands recurring todos into dated occurrences, merges them
// with completion records and aggregates completion analytics. It is pure:
// callers load todos and records from whichever store they use and pass the
// evaluation instant in.
package engine

import (
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// Engine holds the timezone whose midnight defines a calendar day.
type Engine struct {
	loc *time.Location
}

func New(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today returns midnight of now's calendar day.
func (e *Engine) Today(now time.Time) time.Time {
	return recurrence.DayOf(now, e.loc)
}

// Status derives the state of an occurrence scheduled on day.
func (e *Engine) Status(completedAt *time.Time, day, now time.Time) model.OccurrenceStatus {
	if completedAt != nil {
		return model.StatusCompleted
	}
	if recurrence.DayOf(day, e.loc).Before(e.Today(now)) {
		return model.StatusMissed
	}
	return model.StatusPending
}

// OccurrenceID is the stable id of the occurrence of todoID on day (YYYY-MM-DD).
func OccurrenceID(todoID, day string) string {
	return todoID + "@" + day
}
