// Package reminder decides whether a todo's reminder should fire at a given
// instant.
package reminder

import (
	"time"

	"github.com/samber/mo"

	"todo-planner/internal/engine"
	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// Tolerance is how long after its scheduled minute a recurring reminder is
// still surfaced. Later than that it is skipped, not caught up.
const Tolerance = 60 * time.Second

// Kind tells which setting produced a reminder.
type Kind string

const (
	KindExplicit  Kind = "explicit"
	KindRecurring Kind = "recurring"
)

// Due describes a reminder that should fire.
type Due struct {
	TodoID string    `json:"todoId"`
	Kind   Kind      `json:"kind"`
	At     time.Time `json:"at"`
}

// Evaluate reports whether todo's reminder is due at now. Completed todos are
// never due. An explicit ReminderAt takes precedence over the pattern's
// NotifyAt and stays due until it is cleared.
func Evaluate(todo model.Todo, now time.Time, loc *time.Location) (Due, bool) {
	if todo.Completed {
		return Due{}, false
	}
	at, ok := Scheduled(todo, now, loc).Get()
	if !ok {
		return Due{}, false
	}

	if todo.ReminderAt != nil {
		if now.Before(at) {
			return Due{}, false
		}
		return Due{TodoID: todo.ID, Kind: KindExplicit, At: at}, true
	}

	late := now.Sub(at)
	if late < 0 || late > Tolerance {
		return Due{}, false
	}
	return Due{TodoID: todo.ID, Kind: KindRecurring, At: at}, true
}

func IsDue(todo model.Todo, now time.Time, loc *time.Location) bool {
	_, ok := Evaluate(todo, now, loc)
	return ok
}

// Scheduled resolves the instant todo's reminder targets on now's calendar
// day: the explicit ReminderAt, or today at NotifyAt when today is one of the
// todo's occurrences, so the interval, due date and end date all apply. It
// is empty when the todo has no reminder for today.
func Scheduled(todo model.Todo, now time.Time, loc *time.Location) mo.Option[time.Time] {
	if todo.ReminderAt != nil {
		return mo.Some(*todo.ReminderAt)
	}
	p := todo.Recurrence
	if p == nil || p.NotifyAt == "" {
		return mo.None[time.Time]()
	}
	if loc == nil {
		loc = time.Local
	}
	today := recurrence.DayOf(now, loc)
	if !engine.New(loc).IsOccurrence(todo, today) {
		return mo.None[time.Time]()
	}
	hour, minute, err := recurrence.ParseClock(p.NotifyAt)
	if err != nil {
		return mo.None[time.Time]()
	}
	y, m, d := today.Date()
	return mo.Some(time.Date(y, m, d, hour, minute, 0, 0, loc))
}
