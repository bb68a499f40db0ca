package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2024-01-01 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func newTestResolver(t *testing.T, days map[int][][2]string) *ScheduleResolver {
	t.Helper()
	schedule, err := BuildSchedule(days)
	require.NoError(t, err)
	return NewScheduleResolver(schedule, time.UTC, zap.NewNop())
}

func TestScheduleResolver_OvernightRange(t *testing.T) {
	r := newTestResolver(t, map[int][][2]string{
		0: {{"22:00-06:00", "Sleeping"}},
	})

	tests := []struct {
		at   time.Time
		want string
		ok   bool
	}{
		{monday(23, 30), "Sleeping", true},
		{monday(5, 0), "Sleeping", true},
		{monday(22, 0), "Sleeping", true},
		{monday(6, 0), "", false},
		{monday(12, 0), "", false},
	}
	for _, tt := range tests {
		got, ok := r.Resolve(tt.at)
		assert.Equal(t, tt.ok, ok, tt.at.Format("15:04"))
		assert.Equal(t, tt.want, got, tt.at.Format("15:04"))
	}
}

func TestScheduleResolver_NormalRangeIsHalfOpen(t *testing.T) {
	r := newTestResolver(t, map[int][][2]string{
		0: {{"09:00-17:00", "Work"}},
	})

	got, ok := r.Resolve(monday(9, 0))
	assert.True(t, ok)
	assert.Equal(t, "Work", got)

	_, ok = r.Resolve(monday(17, 0))
	assert.False(t, ok)

	_, ok = r.Resolve(monday(8, 59))
	assert.False(t, ok)
}

func TestScheduleResolver_ChecksEveryRangeOfTheDay(t *testing.T) {
	r := newTestResolver(t, map[int][][2]string{
		0: {
			{"06:00-07:00", "Breakfast"},
			{"07:00-09:00", "Commute"},
			{"20:00-02:00", "Gaming"},
		},
	})

	got, ok := r.Resolve(monday(8, 0))
	assert.True(t, ok)
	assert.Equal(t, "Commute", got)

	got, ok = r.Resolve(monday(1, 30))
	assert.True(t, ok)
	assert.Equal(t, "Gaming", got)
}

func TestScheduleResolver_FirstMatchWins(t *testing.T) {
	// Overlapping tables can only be assembled by hand.
	r := NewScheduleResolver(domain.Schedule{
		0: {
			{Weekday: 0, Range: domain.MustParseTimeRange("08:00-12:00"), Activity: "First"},
			{Weekday: 0, Range: domain.MustParseTimeRange("10:00-14:00"), Activity: "Second"},
		},
	}, time.UTC, zap.NewNop())
	got, ok := r.Resolve(monday(11, 0))
	assert.True(t, ok)
	assert.Equal(t, "First", got)
}

func TestScheduleResolver_DayWithoutTable(t *testing.T) {
	r := newTestResolver(t, map[int][][2]string{
		0: {{"00:00-23:59", "Monday things"}},
	})
	// 2024-01-02 is a Tuesday.
	_, ok := r.Resolve(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestScheduleResolver_UsesLocation(t *testing.T) {
	schedule, err := BuildSchedule(map[int][][2]string{
		0: {{"09:00-10:00", "Standup"}},
	})
	require.NoError(t, err)
	loc := time.FixedZone("UTC+2", 2*60*60)
	r := NewScheduleResolver(schedule, loc, zap.NewNop())

	// 07:30 UTC is 09:30 local.
	got, ok := r.Resolve(monday(7, 30))
	assert.True(t, ok)
	assert.Equal(t, "Standup", got)
}

func TestScheduleResolver_CurrentActivityUsesClock(t *testing.T) {
	r := newTestResolver(t, map[int][][2]string{
		0: {{"12:00-13:00", "Lunch"}},
	})
	r.SetClock(func() time.Time { return monday(12, 15) })

	got, ok := r.CurrentActivity(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Lunch", got)
}

func TestDefaultSchedule_EveryMinuteResolvesToExactlyOneActivity(t *testing.T) {
	schedule := DefaultSchedule()
	require.NoError(t, schedule.Validate())
	require.Len(t, schedule, 7)

	r := NewScheduleResolver(schedule, time.UTC, zap.NewNop())
	for day := 0; day < 7; day++ {
		start := monday(0, 0).AddDate(0, 0, day)
		for m := 0; m < 24*60; m += 15 {
			at := start.Add(time.Duration(m) * time.Minute)
			matches := 0
			for _, e := range r.ScheduleForDay(day) {
				if e.Range.Contains(domain.ClockTimeOf(at)) {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "day %d at %s", day, at.Format("15:04"))

			activity, ok := r.Resolve(at)
			assert.True(t, ok)
			assert.NotEmpty(t, activity)
		}
	}
}

func TestBuildSchedule_InvalidRange(t *testing.T) {
	_, err := BuildSchedule(map[int][][2]string{0: {{"25:00-26:00", "x"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = BuildSchedule(map[int][][2]string{0: {{"0900", "x"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildSchedule_RejectsOverlapsAndUnknownWeekdays(t *testing.T) {
	_, err := BuildSchedule(map[int][][2]string{
		0: {{"08:00-12:00", "First"}, {"10:00-14:00", "Second"}},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "overlaps")

	_, err = BuildSchedule(map[int][][2]string{
		0: {{"22:00-02:00", "Late"}, {"01:00-03:00", "Later"}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "overnight ranges overlap past midnight")

	for _, day := range []int{-1, 7, 9} {
		_, err = BuildSchedule(map[int][][2]string{day: {{"08:00-09:00", "x"}}})
		assert.ErrorIs(t, err, domain.ErrValidation, "day %d", day)
	}

	schedule, err := BuildSchedule(map[int][][2]string{
		0: {{"22:00-06:00", "Sleeping"}, {"06:00-22:00", "Awake"}},
		6: {{"00:00-23:59", "Sunday"}},
	})
	require.NoError(t, err)
	assert.Len(t, schedule, 2)
}
