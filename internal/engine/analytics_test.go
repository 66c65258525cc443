package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
)

func regularDone(id string, at time.Time) model.Todo {
	return model.Todo{ID: id, Text: id, Completed: true, CompletedAt: &at}
}

func occurrence(todoID, day string, status model.OccurrenceStatus) model.Occurrence {
	return model.Occurrence{ID: OccurrenceID(todoID, day), TodoID: todoID, ScheduledDate: day, Status: status}
}

func TestComputeAnalytics_NothingExpected(t *testing.T) {
	e := New(time.UTC)
	data := e.ComputeAnalytics(nil, nil, date(2025, 6, 1), date(2025, 6, 30))

	assert.Equal(t, 100, data.CompletionRate)
	assert.Zero(t, data.TotalRegularCompleted)
	assert.Zero(t, data.TotalRecurringCompleted)
	assert.Zero(t, data.TotalRecurringMissed)
	assert.Zero(t, data.CurrentStreak)
	assert.Empty(t, data.DailyBreakdown)
}

func TestComputeAnalytics_WorkedExample(t *testing.T) {
	e := New(time.UTC)

	var todos []model.Todo
	for i := 0; i < 5; i++ {
		todos = append(todos, regularDone(fmt.Sprintf("r%d", i), time.Date(2025, 6, 2+i, 12, 0, 0, 0, time.UTC)))
	}
	var occs []model.Occurrence
	for i := 0; i < 10; i++ {
		occs = append(occs, occurrence("daily", fmt.Sprintf("2025-06-%02d", 10+i), model.StatusCompleted))
	}
	occs = append(occs,
		occurrence("weekly", "2025-06-03", model.StatusMissed),
		occurrence("weekly", "2025-06-04", model.StatusMissed),
		occurrence("weekly", "2025-06-25", model.StatusPending),
	)

	data := e.ComputeAnalytics(todos, occs, date(2025, 6, 1), date(2025, 6, 30))

	assert.Equal(t, 5, data.TotalRegularCompleted)
	assert.Equal(t, 10, data.TotalRecurringCompleted)
	assert.Equal(t, 2, data.TotalRecurringMissed)
	assert.Equal(t, 88, data.CompletionRate)
	assert.Equal(t, 10, data.CurrentStreak)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 100, CompletionRate(0, 0, 0))
	assert.Equal(t, 88, CompletionRate(5, 10, 2))
	assert.Equal(t, 0, CompletionRate(0, 0, 4))
	assert.Equal(t, 50, CompletionRate(1, 0, 1))
	assert.Equal(t, 67, CompletionRate(0, 2, 1))
}

func TestComputeAnalytics_RangeAndBreakdown(t *testing.T) {
	e := New(time.UTC)
	todos := []model.Todo{
		regularDone("in", time.Date(2025, 6, 5, 23, 59, 0, 0, time.UTC)),
		regularDone("before", time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC)),
		regularDone("after", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
		{ID: "open", Text: "open"},
		{ID: "reopened", Text: "reopened", CompletedAt: ptr(date(2025, 6, 5))},
		{ID: "rec", Recurrence: &model.RecurrencePattern{Type: model.RecurDaily}, Completed: true, CompletedAt: ptr(date(2025, 6, 5))},
	}
	occs := []model.Occurrence{
		occurrence("rec", "2025-06-05", model.StatusMissed),
		occurrence("rec", "2025-06-02", model.StatusCompleted),
		occurrence("rec", "2025-07-02", model.StatusCompleted),
	}

	data := e.ComputeAnalytics(todos, occs, date(2025, 6, 1), date(2025, 6, 30))

	require.Equal(t, []model.DailyStats{
		{Date: "2025-06-02", RecurringCompleted: 1},
		{Date: "2025-06-05", RegularCompleted: 1, RecurringMissed: 1},
	}, data.DailyBreakdown)
	assert.Equal(t, 1, data.TotalRegularCompleted)
	assert.Equal(t, 1, data.TotalRecurringCompleted)
	assert.Equal(t, 1, data.TotalRecurringMissed)
	assert.Equal(t, 67, data.CompletionRate)
}

func TestComputeAnalytics_Streak(t *testing.T) {
	e := New(time.UTC)
	start, end := date(2025, 6, 1), date(2025, 6, 30)

	tests := []struct {
		name string
		occs []model.Occurrence
		want int
	}{
		{
			name: "consecutive days",
			occs: []model.Occurrence{
				occurrence("a", "2025-06-10", model.StatusCompleted),
				occurrence("a", "2025-06-11", model.StatusCompleted),
				occurrence("a", "2025-06-12", model.StatusCompleted),
			},
			want: 3,
		},
		{
			name: "gap breaks the streak",
			occs: []model.Occurrence{
				occurrence("a", "2025-06-09", model.StatusCompleted),
				occurrence("a", "2025-06-11", model.StatusCompleted),
				occurrence("a", "2025-06-12", model.StatusCompleted),
			},
			want: 2,
		},
		{
			name: "most recent active day without completion",
			occs: []model.Occurrence{
				occurrence("a", "2025-06-10", model.StatusCompleted),
				occurrence("a", "2025-06-11", model.StatusCompleted),
				occurrence("a", "2025-06-12", model.StatusMissed),
			},
			want: 0,
		},
		{
			name: "partial misses still count",
			occs: []model.Occurrence{
				occurrence("a", "2025-06-11", model.StatusCompleted),
				occurrence("b", "2025-06-11", model.StatusMissed),
				occurrence("a", "2025-06-12", model.StatusCompleted),
				occurrence("b", "2025-06-12", model.StatusMissed),
			},
			want: 2,
		},
		{
			name: "pending days are not activity",
			occs: []model.Occurrence{
				occurrence("a", "2025-06-11", model.StatusCompleted),
				occurrence("a", "2025-06-12", model.StatusPending),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ComputeAnalytics(nil, tt.occs, start, end).CurrentStreak)
		})
	}
}

func TestComputeAnalytics_RegularCompletionUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	e := New(loc)
	// 03:00Z on June 2 is still June 1 at UTC-7.
	todos := []model.Todo{regularDone("late", time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC))}

	data := e.ComputeAnalytics(todos, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, loc), time.Date(2025, 6, 1, 0, 0, 0, 0, loc))
	require.Len(t, data.DailyBreakdown, 1)
	assert.Equal(t, "2025-06-01", data.DailyBreakdown[0].Date)
}
