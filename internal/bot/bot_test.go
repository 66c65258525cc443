package bot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/reminder"
)

func TestMatchTodo(t *testing.T) {
	todos := []model.Todo{
		{ID: "3f2a9c10-0000-4000-8000-000000000001", Text: "gym"},
		{ID: "3f2b0000-0000-4000-8000-000000000002", Text: "rent"},
		{ID: "a1000000-0000-4000-8000-000000000003", Text: "call"},
	}

	tests := []struct {
		ref     string
		want    string
		wantErr error
	}{
		{"3f2a", "gym", nil},
		{"#A1", "call", nil},
		{"3f2b0000-0000-4000-8000-000000000002", "rent", nil},
		{"3f2", "", errAmbiguousTodo},
		{"ff", "", errNoTodo},
		{"  ", "", errNoTodo},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := matchTodo(todos, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Text)
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"пн, ср, пт", []int{1, 3, 5}, false},
		{"Сб вс", []int{0, 6}, false},
		{"1;3;7", []int{0, 1, 3}, false},
		{"mon,mon", []int{1}, false},
		{"", nil, true},
		{"пн, завтра", nil, true},
		{"8", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWeekdays(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOccurrenceData(t *testing.T) {
	id := uuid.NewString()
	data := occurrenceData(id, "2025-06-14", true)
	assert.LessOrEqual(t, len(data), 64, "telegram callback data limit")

	todoID, day, completed, err := parseOccurrenceData(data)
	require.NoError(t, err)
	assert.Equal(t, id, todoID)
	assert.Equal(t, "2025-06-14", day)
	assert.True(t, completed)

	_, _, completed, err = parseOccurrenceData(occurrenceData(id, "2025-06-14", false))
	require.NoError(t, err)
	assert.False(t, completed)

	for _, bad := range []string{"occ:", "occ:x:2025-06-14", "occ:x:14.06.2025:1", "occ:x:2025-06-14:2", "occ::2025-06-14:1"} {
		_, _, _, err := parseOccurrenceData(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDays(t *testing.T) {
	n, err := parseDays("", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = parseDays(" 14 ", 7)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	for _, bad := range []string{"0", "-3", "abc", "367"} {
		_, err := parseDays(bad, 7)
		assert.Error(t, err, bad)
	}
}

func TestParseUserDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	for _, in := range []string{"2025-06-14", "14.06.2025"} {
		got, err := parseUserDate(in, loc)
		require.NoError(t, err, in)
		assert.True(t, time.Date(2025, 6, 14, 0, 0, 0, 0, loc).Equal(got), in)
	}
	_, err := parseUserDate("14/06/2025", loc)
	assert.Error(t, err)
}

func TestDescribePattern(t *testing.T) {
	tests := []struct {
		name string
		in   model.RecurrencePattern
		want string
	}{
		{"daily", model.RecurrencePattern{Type: model.RecurDaily}, "каждый день"},
		{"every other day", model.RecurrencePattern{Type: model.RecurDaily, Interval: 2}, "раз в 2 дн."},
		{"weekly", model.RecurrencePattern{Type: model.RecurWeekly, DaysOfWeek: []int{1, 3}, NotifyAt: "07:30"}, "по дням: пн, ср, напоминание в 07:30"},
		{"monthly", model.RecurrencePattern{Type: model.RecurMonthly, DayOfMonth: 31}, "каждый месяц 31 числа"},
		{"yearly", model.RecurrencePattern{Type: model.RecurYearly, DayOfMonth: 1, MonthOfYear: 9, EndDate: "2030-01-01"}, "каждый год 01.09, до 2030-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describePattern(tt.in))
		})
	}
}

func TestFormatStats(t *testing.T) {
	data := model.AnalyticsData{
		TotalRegularCompleted:   2,
		TotalRecurringCompleted: 5,
		TotalRecurringMissed:    1,
		CompletionRate:          88,
		CurrentStreak:           3,
		DailyBreakdown: []model.DailyStats{
			{Date: "2025-06-13", RecurringMissed: 1},
			{Date: "2025-06-14", RegularCompleted: 2, RecurringCompleted: 1},
		},
	}
	text := formatStats(data, 30)
	assert.Contains(t, text, "за 30 дн.")
	assert.Contains(t, text, "88%")
	assert.Contains(t, text, "Серия: 3 дн.")
	assert.Contains(t, text, "<code>13.06</code> 🟥")
	assert.Contains(t, text, "<code>14.06</code> 🟩🟩🟩")
}

func TestFormatReminder(t *testing.T) {
	todo := model.Todo{ID: "t1", Text: "pills <2>", Recurrence: &model.RecurrencePattern{Type: model.RecurDaily, NotifyAt: "09:00"}}
	due := reminder.Due{TodoID: "t1", Kind: reminder.KindRecurring, At: time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)}

	text := formatReminder(todo, due, time.UTC)
	assert.Contains(t, text, "09:00")
	assert.Contains(t, text, "Pills &lt;2&gt;")
	assert.Contains(t, text, "каждый день")

	kb := reminderKeyboard(todo, "2025-06-14")
	require.Len(t, kb.InlineKeyboard, 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "occ:t1:2025-06-14:1", *kb.InlineKeyboard[0][0].CallbackData)

	regular := model.Todo{ID: "t2", Text: "call"}
	kb = reminderKeyboard(regular, "2025-06-14")
	assert.Equal(t, "done:t2", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestShortTitleAndFolder(t *testing.T) {
	assert.Equal(t, "Короткая", shortTitle("короткая", 10))
	assert.Equal(t, "Очень длин…", shortTitle("очень длинная задача", 11))

	names := map[uint]string{1: "работа", 2: "  "}
	one, two, three := uint(1), uint(2), uint(3)
	key, label := folderKey(&one, names)
	assert.Equal(t, "работа", key)
	assert.Equal(t, "💼 Работа", label)
	for _, id := range []*uint{nil, &two, &three} {
		key, _ := folderKey(id, names)
		assert.Equal(t, noFolderKey, key)
	}
}
