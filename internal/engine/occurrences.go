package engine

import (
	"sort"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// ListOccurrences expands every recurring todo over [start, end] (whole days,
// inclusive) and merges the result with completions. Iteration for a todo
// starts no earlier than its due date and stops after the pattern's end date.
// The result is ordered newest first; same-day occurrences keep input order.
func (e *Engine) ListOccurrences(todos []model.Todo, completions []model.CompletionRecord, start, end, now time.Time) []model.Occurrence {
	index := NewCompletionSet(completions)

	var out []model.Occurrence
	for _, todo := range todos {
		if !todo.IsRecurring() {
			continue
		}
		lo, hi, ok := e.bounds(todo, start, end)
		if !ok {
			continue
		}
		anchor, anchored := e.anchor(todo)
		for day := lo; !day.After(hi); day = recurrence.AddDays(day, 1, e.loc) {
			if !e.fires(*todo.Recurrence, anchor, anchored, day) {
				continue
			}
			key := recurrence.FormatDay(day, e.loc)
			occ := model.Occurrence{
				ID:            OccurrenceID(todo.ID, key),
				TodoID:        todo.ID,
				TodoText:      todo.Text,
				ScheduledDate: key,
			}
			if rec, found := index.Lookup(todo.ID, key); found {
				occ.CompletedAt = rec.CompletedAt
				occ.HasCompletionRecord = true
			}
			occ.Status = e.Status(occ.CompletedAt, day, now)
			out = append(out, occ)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledDate > out[j].ScheduledDate
	})
	return out
}

// IsOccurrence reports whether a recurring todo is expected on day.
func (e *Engine) IsOccurrence(todo model.Todo, day time.Time) bool {
	if !todo.IsRecurring() {
		return false
	}
	day = recurrence.DayOf(day, e.loc)
	lo, hi, ok := e.bounds(todo, day, day)
	if !ok || !lo.Equal(day) || !hi.Equal(day) {
		return false
	}
	anchor, anchored := e.anchor(todo)
	return e.fires(*todo.Recurrence, anchor, anchored, day)
}

// bounds clamps [start, end] to the todo's due date and the pattern's end
// date. An unparsable end date is ignored.
func (e *Engine) bounds(todo model.Todo, start, end time.Time) (time.Time, time.Time, bool) {
	lo := recurrence.DayOf(start, e.loc)
	hi := recurrence.DayOf(end, e.loc)

	if todo.DueDate != nil {
		if due := recurrence.DayOf(*todo.DueDate, e.loc); due.After(lo) {
			lo = due
		}
	}
	if p := todo.Recurrence; p != nil && p.EndDate != "" {
		if until, err := recurrence.ParseDate(p.EndDate, e.loc); err == nil && until.Before(hi) {
			hi = until
		}
	}
	return lo, hi, !lo.After(hi)
}

// anchor is the day interval counting starts from: the due date, else the
// creation day.
func (e *Engine) anchor(todo model.Todo) (time.Time, bool) {
	switch {
	case todo.DueDate != nil:
		return recurrence.DayOf(*todo.DueDate, e.loc), true
	case !todo.CreatedAt.IsZero():
		return recurrence.DayOf(todo.CreatedAt, e.loc), true
	default:
		return time.Time{}, false
	}
}

func (e *Engine) fires(p model.RecurrencePattern, anchor time.Time, anchored bool, day time.Time) bool {
	if !recurrence.Matches(p, day) {
		return false
	}
	return !anchored || recurrence.OnInterval(p, anchor, day)
}
