package engine

import (
	"math"
	"sort"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/recurrence"
)

// ComputeAnalytics aggregates regular completions (non-recurring todos whose
// CompletedAt falls in range) and recurring occurrences over [start, end].
// Pending occurrences count neither as completed nor as missed.
func (e *Engine) ComputeAnalytics(todos []model.Todo, occurrences []model.Occurrence, start, end time.Time) model.AnalyticsData {
	first := recurrence.FormatDay(recurrence.DayOf(start, e.loc), e.loc)
	last := recurrence.FormatDay(recurrence.DayOf(end, e.loc), e.loc)

	days := make(map[string]*model.DailyStats)
	entry := func(key string) *model.DailyStats {
		d, ok := days[key]
		if !ok {
			d = &model.DailyStats{Date: key}
			days[key] = d
		}
		return d
	}

	for _, todo := range todos {
		if todo.IsRecurring() || !todo.Completed || todo.CompletedAt == nil {
			continue
		}
		key := recurrence.FormatDay(*todo.CompletedAt, e.loc)
		if key < first || key > last {
			continue
		}
		entry(key).RegularCompleted++
	}

	for _, occ := range occurrences {
		if occ.ScheduledDate < first || occ.ScheduledDate > last {
			continue
		}
		switch occ.Status {
		case model.StatusCompleted:
			entry(occ.ScheduledDate).RecurringCompleted++
		case model.StatusMissed:
			entry(occ.ScheduledDate).RecurringMissed++
		}
	}

	breakdown := make([]model.DailyStats, 0, len(days))
	for _, d := range days {
		breakdown = append(breakdown, *d)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Date < breakdown[j].Date
	})
	return summarize(breakdown)
}

// CompletionRate is the rounded share of done items among expected ones.
// Nothing expected counts as fully done.
func CompletionRate(regularCompleted, recurringCompleted, recurringMissed int) int {
	expected := regularCompleted + recurringCompleted + recurringMissed
	if expected <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(regularCompleted+recurringCompleted) / float64(expected)))
}

// summarize clamps every day to non-negative counts, drops days left without
// events and derives totals, rate and streak from what remains. breakdown must
// be sorted by date.
func summarize(breakdown []model.DailyStats) model.AnalyticsData {
	data := model.AnalyticsData{DailyBreakdown: make([]model.DailyStats, 0, len(breakdown))}
	for _, d := range breakdown {
		d.RegularCompleted = max(0, d.RegularCompleted)
		d.RecurringCompleted = max(0, d.RecurringCompleted)
		d.RecurringMissed = max(0, d.RecurringMissed)
		if d.Empty() {
			continue
		}
		data.TotalRegularCompleted += d.RegularCompleted
		data.TotalRecurringCompleted += d.RecurringCompleted
		data.TotalRecurringMissed += d.RecurringMissed
		data.DailyBreakdown = append(data.DailyBreakdown, d)
	}
	data.CompletionRate = CompletionRate(data.TotalRegularCompleted, data.TotalRecurringCompleted, data.TotalRecurringMissed)
	data.CurrentStreak = currentStreak(data.DailyBreakdown)
	return data
}

// currentStreak walks back one calendar day at a time from the most recent
// day with any activity and counts days with at least one completion.
func currentStreak(breakdown []model.DailyStats) int {
	if len(breakdown) == 0 {
		return 0
	}
	byDate := make(map[string]model.DailyStats, len(breakdown))
	for _, d := range breakdown {
		byDate[d.Date] = d
	}

	cursor, err := time.Parse(model.DayLayout, breakdown[len(breakdown)-1].Date)
	if err != nil {
		return 0
	}
	streak := 0
	for {
		d, ok := byDate[cursor.Format(model.DayLayout)]
		if !ok || d.Completed() == 0 {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}
