package recurrence

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)

	got, err := ParseDate("2025-06-15", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc), got)

	// 22:30 UTC is already the next day at UTC+3.
	got, err = ParseDate("2025-06-15T22:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-16", FormatDay(got, loc))

	_, err = ParseDate("15/06/2025", loc)
	assert.Error(t, err)
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	instant := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, loc), DayOf(instant, loc))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(day(2025, 3, 1), day(2025, 3, 1)))
	assert.Equal(t, 31, DaysBetween(day(2025, 3, 1), day(2025, 4, 1)))
	assert.Equal(t, -1, DaysBetween(day(2025, 3, 1), day(2025, 2, 28)))
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestStartOfDay_MidnightGap(t *testing.T) {
	// Chile skips 00:00-01:00 on 2024-09-08.
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	start := StartOfDay(2024, 9, 8, loc)
	assert.Equal(t, "2024-09-08", FormatDay(start, loc))
	assert.True(t, start.Equal(time.Date(2024, 9, 8, 4, 0, 0, 0, time.UTC)), start)

	before := StartOfDay(2024, 9, 7, loc)
	assert.Equal(t, "2024-09-07", FormatDay(before, loc))
	assert.True(t, AddDays(before, 1, loc).Equal(start))
	assert.Equal(t, "2024-09-09", FormatDay(AddDays(start, 1, loc), loc))
	assert.True(t, DayOf(start.Add(5*time.Hour), loc).Equal(start))

	parsed, err := ParseDate("2024-09-08", loc)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(start))
}

func TestAddDays_Normalizes(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	day := time.Date(2025, 1, 31, 0, 0, 0, 0, loc)
	assert.Equal(t, "2025-02-01", FormatDay(AddDays(day, 1, loc), loc))
	assert.Equal(t, "2024-12-31", FormatDay(AddDays(day, -31, loc), loc))
}
