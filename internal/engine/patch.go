package engine

import (
	"slices"
	"sort"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// OccurrenceChange is one recurring occurrence moving between statuses.
type OccurrenceChange struct {
	ScheduledDate string
	From          model.OccurrenceStatus
	To            model.OccurrenceStatus
}

// Deltas returns how the day's completed and missed counters move.
func (c OccurrenceChange) Deltas() (completedDelta, missedDelta int) {
	weight := func(s model.OccurrenceStatus) (int, int) {
		switch s {
		case model.StatusCompleted:
			return 1, 0
		case model.StatusMissed:
			return 0, 1
		default:
			return 0, 0
		}
	}
	fc, fm := weight(c.From)
	tc, tm := weight(c.To)
	return tc - fc, tm - fm
}

// ApplyOccurrenceChange patches analytics for [start, end] with a single
// status change instead of recomputing from scratch. For analytics produced
// by ComputeAnalytics the result equals a full recompute over the updated
// records. data itself is not modified.
func (e *Engine) ApplyOccurrenceChange(data model.AnalyticsData, change OccurrenceChange, start, end time.Time) model.AnalyticsData {
	days := slices.Clone(data.DailyBreakdown)
	first := recurrence.FormatDay(recurrence.DayOf(start, e.loc), e.loc)
	last := recurrence.FormatDay(recurrence.DayOf(end, e.loc), e.loc)

	completedDelta, missedDelta := change.Deltas()
	if change.ScheduledDate < first || change.ScheduledDate > last || (completedDelta == 0 && missedDelta == 0) {
		return summarize(days)
	}

	i := sort.Search(len(days), func(i int) bool { return days[i].Date >= change.ScheduledDate })
	if i == len(days) || days[i].Date != change.ScheduledDate {
		days = slices.Insert(days, i, model.DailyStats{Date: change.ScheduledDate})
	}
	days[i].RecurringCompleted += completedDelta
	days[i].RecurringMissed += missedDelta
	return summarize(days)
}
