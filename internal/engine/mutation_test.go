package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
)

func TestMutation(t *testing.T) {
	e := New(time.UTC)
	start, end := date(2025, 6, 1), date(2025, 6, 30)
	current := e.ComputeAnalytics(nil, []model.Occurrence{occurrence("a", "2025-06-10", model.StatusMissed)}, start, end)
	change := OccurrenceChange{ScheduledDate: "2025-06-10", From: model.StatusMissed, To: model.StatusCompleted}
	patch := func(d model.AnalyticsData) model.AnalyticsData {
		return e.ApplyOccurrenceChange(d, change, start, end)
	}

	t.Run("commit keeps the optimistic value", func(t *testing.T) {
		m := BeginMutation(current, patch)
		assert.Equal(t, MutationPending, m.State())
		assert.Equal(t, 100, m.Optimistic().CompletionRate)

		kept, err := m.Commit()
		require.NoError(t, err)
		assert.Equal(t, m.Optimistic(), kept)
		assert.Equal(t, MutationCommitted, m.State())

		_, err = m.Rollback()
		assert.ErrorIs(t, err, ErrMutationSettled)
	})

	t.Run("rollback restores the snapshot", func(t *testing.T) {
		m := BeginMutation(current, patch)
		restored, err := m.Rollback()
		require.NoError(t, err)
		assert.Equal(t, current, restored)
		assert.Equal(t, 0, restored.CompletionRate)
		assert.Equal(t, "rolled_back", m.State().String())

		_, err = m.Commit()
		assert.ErrorIs(t, err, ErrMutationSettled)
	})

	t.Run("snapshot is isolated from the caller", func(t *testing.T) {
		input := current
		input.DailyBreakdown = append([]model.DailyStats(nil), current.DailyBreakdown...)
		m := BeginMutation(input, patch)
		input.DailyBreakdown[0].RecurringMissed = 99

		restored, err := m.Rollback()
		require.NoError(t, err)
		assert.Equal(t, 1, restored.DailyBreakdown[0].RecurringMissed)
	})
}

func TestCloneAnalytics_DetachesBreakdown(t *testing.T) {
	data := model.AnalyticsData{DailyBreakdown: []model.DailyStats{{Date: "2025-06-10", RecurringCompleted: 1}}}
	clone := CloneAnalytics(data)
	clone.DailyBreakdown[0].RecurringCompleted = 5

	assert.Equal(t, 1, data.DailyBreakdown[0].RecurringCompleted)
}
