// Package export renders todos as an iCalendar feed of VTODO components.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

const productID = "-//todo-planner//Todo Export//EN"

const (
	statusNeedsAction = "NEEDS-ACTION"
	statusCompleted   = "COMPLETED"
)

// Calendar builds a VCALENDAR holding one VTODO per todo. Recurring todos
// carry an RRULE starting at their anchor day; todos with a reminder get a
// display VALARM.
func Calendar(todos []model.Todo, now time.Time, loc *time.Location) (*ical.Calendar, error) {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, todo := range todos {
		comp, err := component(todo, now, loc)
		if err != nil {
			return nil, fmt.Errorf("todo %s: %w", todo.ID, err)
		}
		cal.Children = append(cal.Children, comp)
	}
	return cal, nil
}

func component(todo model.Todo, now time.Time, loc *time.Location) (*ical.Component, error) {
	comp := ical.NewComponent(ical.CompToDo)
	comp.Props.SetText(ical.PropUID, todo.ID)
	comp.Props.SetText(ical.PropSummary, strings.TrimSpace(todo.Text))
	comp.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	if !todo.CreatedAt.IsZero() {
		comp.Props.SetDateTime(ical.PropCreated, todo.CreatedAt.UTC())
	}

	if todo.IsRecurring() {
		start := todo.CreatedAt
		if todo.DueDate != nil {
			start = *todo.DueDate
		}
		if start.IsZero() {
			start = now
		}
		rule, err := recurrence.ToRRule(*todo.Recurrence, start, loc)
		if err != nil {
			return nil, err
		}
		comp.Props.SetDate(ical.PropDateTimeStart, recurrence.DayOf(start, loc))
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rule.OrigOptions.RRuleString()
		comp.Props.Set(prop)
		comp.Props.SetText(ical.PropStatus, statusNeedsAction)
	} else {
		if todo.DueDate != nil {
			comp.Props.SetDate(ical.PropDue, recurrence.DayOf(*todo.DueDate, loc))
		}
		if todo.Completed {
			comp.Props.SetText(ical.PropStatus, statusCompleted)
			if todo.CompletedAt != nil {
				comp.Props.SetDateTime(ical.PropCompleted, todo.CompletedAt.UTC())
			}
		} else {
			comp.Props.SetText(ical.PropStatus, statusNeedsAction)
		}
	}

	if todo.ReminderAt != nil && !todo.Completed {
		comp.Children = append(comp.Children, alarm(*todo.ReminderAt, todo.Text))
	}
	return comp, nil
}

func alarm(at time.Time, text string) *ical.Component {
	comp := ical.NewComponent(ical.CompAlarm)
	comp.Props.SetText(ical.PropAction, "DISPLAY")
	comp.Props.SetText(ical.PropDescription, strings.TrimSpace(text))
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.SetDateTime(at.UTC())
	comp.Props.Set(trigger)
	return comp
}

// Encode writes cal to w.
func Encode(w io.Writer, cal *ical.Calendar) error {
	return ical.NewEncoder(w).Encode(cal)
}

// Marshal renders todos straight to iCalendar bytes.
func Marshal(todos []model.Todo, now time.Time, loc *time.Location) ([]byte, error) {
	cal, err := Calendar(todos, now, loc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
