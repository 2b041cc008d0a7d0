package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"09:30", "09:30:00"},
		{"09:30:15", "09:30:15"},
		{" 21:00 ", "21:00:00"},
		{"2024-01-10T08:00:00Z", "08:00:00"},
		{"2024-01-10T08:15:30+02:00", "08:15:30"},
		{"", ""},
		{"soon", "soon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTime(tt.raw), "NormalizeTime(%q)", tt.raw)
	}
}

func TestNormalizeDays(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"abbreviations", []string{"Mon", "Wed", "Fri"}, "Mon,Wed,Fri"},
		{"full names", []string{"monday", "SATURDAY"}, "Mon,Sat"},
		{"mixed case partials", []string{"tUeSdAy", "thu"}, "Tue,Thu"},
		{"duplicates collapsed", []string{"Sun", "sunday", "SUN"}, "Sun"},
		{"junk dropped", []string{"Mon", "someday", "xx", ""}, "Mon"},
		{"all junk", []string{"yesterday", "4"}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDays(tt.tokens))
		})
	}
}

func TestDaysForFrequency(t *testing.T) {
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) // a Wednesday

	assert.Equal(t, AllDays, DaysForFrequency("Daily", "UTC", now))
	assert.Equal(t, "Mon,Tue,Wed,Thu,Fri", DaysForFrequency("Weekdays", "UTC", now))
	assert.Equal(t, "Sat,Sun", DaysForFrequency("Weekends", "UTC", now))
	assert.Equal(t, AllDays, DaysForFrequency("", "UTC", now))
	assert.Equal(t, AllDays, DaysForFrequency("Fortnightly", "UTC", now))
	assert.Equal(t, "Wed", DaysForFrequency("Weekly", "UTC", now))
}

func TestDaysForFrequencyWeeklyUsesZone(t *testing.T) {
	// Friday 23:00 UTC is already Saturday morning in Tokyo; the weekly
	// cadence pins to the day in the reminder's timezone.
	now := time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "Fri", DaysForFrequency("Weekly", "UTC", now))
	assert.Equal(t, "Sat", DaysForFrequency("Weekly", "Asia/Tokyo", now))
}

func TestBuildScheduledAt(t *testing.T) {
	got, err := BuildScheduledAt("2024-01-10", "08:00:00", "America/New_York")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC), got.UTC())

	got, err = BuildScheduledAt("2024-01-10", "08:00:00", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), got.UTC())

	got, err = BuildScheduledAt("", "08:00:00", "UTC")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = BuildScheduledAt("sometime", "08:00:00", "UTC")
	assert.Error(t, err)
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows("", "Wed"), "empty set means every day")
	assert.True(t, Allows("Sat,Sun", "Sun"))
	assert.False(t, Allows("Sat,Sun", "Mon"))
	assert.True(t, Allows(" Mon , Tue ", "Tue"))
}
