package tickfollower

import (
	"testing"
	"time"

	"github.com/krobus00/tick-follower/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	session, err := NewSession(config.SessionConfig{
		Timezone:     "America/New_York",
		Start:        "09:40",
		End:          "12:40",
		FirstWeekday: 0,
		LastWeekday:  5,
	})
	require.NoError(t, err)
	return session
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, minute, second int) time.Time {
	t.Helper()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, minute, second, 0, loc)
}

func TestSessionContains_WindowBounds(t *testing.T) {
	session := newTestSession(t)

	// 2026-01-06 is a Tuesday.
	assert.False(t, session.Contains(nyTime(t, 2026, time.January, 6, 9, 39, 59)))
	assert.True(t, session.Contains(nyTime(t, 2026, time.January, 6, 9, 40, 0)))
	assert.True(t, session.Contains(nyTime(t, 2026, time.January, 6, 11, 0, 0)))
	assert.True(t, session.Contains(nyTime(t, 2026, time.January, 6, 12, 40, 0)))
	assert.False(t, session.Contains(nyTime(t, 2026, time.January, 6, 12, 40, 1)))
}

func TestSessionContains_WeekdayRange(t *testing.T) {
	session := newTestSession(t)

	// Monday through Friday inside the window.
	for day := 5; day <= 9; day++ {
		assert.True(t, session.Contains(nyTime(t, 2026, time.January, day, 10, 0, 0)), "day %d", day)
	}

	// The default last_weekday of 5 keeps Saturday inside the window.
	assert.True(t, session.Contains(nyTime(t, 2026, time.January, 10, 10, 0, 0)))

	// Sunday is out.
	assert.False(t, session.Contains(nyTime(t, 2026, time.January, 11, 10, 0, 0)))
}

func TestSessionContains_ConvertsForeignClock(t *testing.T) {
	session := newTestSession(t)

	// 15:00 UTC on a Tuesday in January is 10:00 in New York.
	utc := time.Date(2026, time.January, 6, 15, 0, 0, 0, time.UTC)
	assert.True(t, session.Contains(utc))

	// 15:00 New York expressed as UTC is outside the window.
	late := time.Date(2026, time.January, 6, 20, 0, 0, 0, time.UTC)
	assert.False(t, session.Contains(late))
}

func TestNewSession_RejectsInvertedWindow(t *testing.T) {
	_, err := NewSession(config.SessionConfig{
		Timezone: "America/New_York",
		Start:    "12:40",
		End:      "09:40",
	})
	require.Error(t, err)
}

func TestNewSession_RejectsBadClock(t *testing.T) {
	_, err := NewSession(config.SessionConfig{
		Timezone: "America/New_York",
		Start:    "9:40am",
		End:      "12:40",
	})
	require.Error(t, err)
}
