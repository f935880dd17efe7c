package leaderboarddomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

func day(d int) time.Time { return calendar.Day(2024, time.January, d) }

func ptr(t time.Time) *time.Time { return &t }

func TestResolveSettled(t *testing.T) {
	tests := []struct {
		name        string
		from, to    *time.Time
		expected    DateRange
		wantClipped bool
	}{
		{name: "default covers league start through cutoff", expected: DateRange{From: day(1), To: day(18)}},
		{name: "custom settled range", from: ptr(day(5)), to: ptr(day(10)), expected: DateRange{From: day(5), To: day(10)}},
		{name: "range into unsettled days is clipped", from: ptr(day(5)), to: ptr(day(20)), expected: DateRange{From: day(5), To: day(18)}, wantClipped: true},
		{name: "range before league start is clipped", from: ptr(calendar.Day(2023, time.December, 25)), to: ptr(day(3)), expected: DateRange{From: day(1), To: day(3)}, wantClipped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ResolveSettled(testLeague, testToday, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, w.Effective)
			assert.Equal(t, tt.wantClipped, w.Clipped)
		})
	}
}

func TestResolveSettled_EntirelyUnsettled(t *testing.T) {
	w, err := ResolveSettled(testLeague, testToday, ptr(day(19)), ptr(day(20)))
	require.NoError(t, err)
	assert.True(t, w.Clipped)
	assert.True(t, w.Effective.Empty())
	assert.Equal(t, 0, w.Effective.Days())
}

func TestResolveSettled_InvertedRange(t *testing.T) {
	_, err := ResolveSettled(testLeague, testToday, ptr(day(10)), ptr(day(5)))
	assert.True(t, leagueerr.Is(err, leagueerr.KindValidation))
}

func TestRealtimeWindow(t *testing.T) {
	assert.Equal(t, DateRange{From: day(19), To: day(20)}, RealtimeWindow(testLeague, testToday))
	assert.Equal(t, DateRange{From: day(1), To: day(1)}, RealtimeWindow(testLeague, day(1)))

	before := RealtimeWindow(testLeague, calendar.Day(2023, time.December, 20))
	assert.True(t, before.Empty())
}

func TestSpan(t *testing.T) {
	a := DateRange{From: day(1), To: day(18)}
	b := DateRange{From: day(19), To: day(20)}
	assert.Equal(t, DateRange{From: day(1), To: day(20)}, Span(a, b))
	assert.Equal(t, b, Span(DateRange{From: day(5), To: day(4)}, b))
}
