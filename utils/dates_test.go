package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday
var refNow = time.Date(2025, 11, 12, 10, 30, 0, 0, time.UTC)

func TestNormalizeDateAt(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2025-11-10", "Mon November 10, 2025"},
		{"Mon November 10, 2025", "Mon November 10, 2025"},
		{"Monday, November 10th, 2025", "Mon November 10, 2025"},
		{"11/10/2025", "Mon November 10, 2025"},
		{"Nov 10", "Mon November 10, 2025"},
		{"Menu for Nov 10", "Mon November 10, 2025"},
		{"today", "Wed November 12, 2025"},
		{"Tomorrow", "Thu November 13, 2025"},
		{"yesterday", "Tue November 11, 2025"},
		{"friday", "Fri November 14, 2025"},
		{"wednesday", "Wed November 12, 2025"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeDateAt(tc.in, refNow))
		})
	}
}

func TestNormalizeDateAtUnparseable(t *testing.T) {
	assert.Equal(t, "not a date", NormalizeDateAt("  not a date ", refNow))
	assert.Equal(t, "Thu Smarch 12, 2025", NormalizeDateAt("Thursday Smarch 12 2025", refNow))
}

func TestIsWeekendAt(t *testing.T) {
	assert.True(t, IsWeekendAt("Sat November 15, 2025", refNow))
	assert.True(t, IsWeekendAt("2025-11-16", refNow))
	assert.False(t, IsWeekendAt("2025-11-14", refNow))
	assert.False(t, IsWeekendAt("today", refNow))
	assert.False(t, IsWeekendAt("garbage", refNow))
}

func TestPastWeekDates(t *testing.T) {
	dates := PastWeekDates(refNow)
	assert.Len(t, dates, 14)
	assert.Equal(t, "Tue November 11, 2025", dates[0])
	assert.Equal(t, "2025-11-11", dates[1])
	assert.Equal(t, "Wed November 05, 2025", dates[12])
	assert.Equal(t, "2025-11-05", dates[13])
	assert.NotContains(t, dates, CanonicalDate(refNow))
	assert.NotContains(t, dates, ISODate(refNow))
}
