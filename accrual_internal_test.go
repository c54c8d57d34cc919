package sproutbank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2024-01-01 was a Monday.
var (
	jan1Anchor  = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	jan8Anchor  = time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	jan15Anchor = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	jan22Anchor = time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
)

func TestCurrentAnchor(t *testing.T) {
	as := assert.New(t)

	t.Run("mid-week resolves to the past Monday", func(tt *testing.T) {
		wednesday := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
		as.Equal(jan1Anchor, currentAnchor(wednesday))
	})

	t.Run("Monday after the anchor hour resolves to today", func(tt *testing.T) {
		monday := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
		as.Equal(jan8Anchor, currentAnchor(monday))
		as.Equal(jan8Anchor, currentAnchor(monday.Add(5*time.Hour)))
	})

	t.Run("Monday before the anchor hour resolves to the previous week", func(tt *testing.T) {
		earlyMonday := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
		as.Equal(jan1Anchor, currentAnchor(earlyMonday))
	})

	t.Run("Sunday resolves to the Monday six days back", func(tt *testing.T) {
		sunday := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)
		as.Equal(jan1Anchor, currentAnchor(sunday))
	})
}

func TestDuePeriods(t *testing.T) {
	t.Run("never accrued owes only the current anchor", func(tt *testing.T) {
		as := assert.New(tt)
		now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
		as.Equal([]time.Time{jan8Anchor}, duePeriods(nil, now))
	})

	t.Run("never accrued owes nothing before this week's anchor", func(tt *testing.T) {
		as := assert.New(tt)
		// Monday 09:00: the cycle has not started, and the previous
		// week must not be owed either
		earlyMonday := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
		as.Empty(duePeriods(nil, earlyMonday))

		atAnchor := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
		as.Equal([]time.Time{jan8Anchor}, duePeriods(nil, atAnchor))
	})

	t.Run("three missed weeks owe three anchors oldest first", func(tt *testing.T) {
		as := assert.New(tt)
		last := jan1Anchor
		now := time.Date(2024, 1, 22, 11, 0, 0, 0, time.UTC)
		as.Equal([]time.Time{jan8Anchor, jan15Anchor, jan22Anchor}, duePeriods(&last, now))
	})

	t.Run("accrued this cycle owes nothing", func(tt *testing.T) {
		as := assert.New(tt)
		last := jan8Anchor
		now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
		as.Empty(duePeriods(&last, now))
	})

	t.Run("a mid-week last accrual owes from the following Monday", func(tt *testing.T) {
		as := assert.New(tt)
		last := time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)
		now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		as.Equal([]time.Time{jan8Anchor, jan15Anchor}, duePeriods(&last, now))
	})

	t.Run("enumeration is independent of whether interest fired", func(tt *testing.T) {
		as := assert.New(tt)
		// the stored date was never advanced past Jan 1, so every
		// anchor since then is enumerated again
		last := jan1Anchor
		now := time.Date(2024, 1, 22, 11, 0, 0, 0, time.UTC)
		first := duePeriods(&last, now)
		second := duePeriods(&last, now)
		as.Equal(first, second)
	})
}
