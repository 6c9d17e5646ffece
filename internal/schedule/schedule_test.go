package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking-api/internal/schedule"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestOccupiedWindow(t *testing.T) {
	start := at(t, "2026-10-01T10:00:00Z")
	iv := schedule.Occupied(start, 105, 30*time.Minute)

	assert.Equal(t, start, iv.Start)
	assert.Equal(t, at(t, "2026-10-01T12:15:00Z"), iv.End)
}

func TestOverlapsTouchingBoundariesDoNotConflict(t *testing.T) {
	// A 105 minute movie with a 30 minute buffer occupies
	// [10:00, 12:15); the next show may start exactly at 12:15.
	first := schedule.Occupied(at(t, "2026-10-01T10:00:00Z"), 105, 30*time.Minute)
	next := schedule.Occupied(at(t, "2026-10-01T12:15:00Z"), 105, 30*time.Minute)

	assert.False(t, first.Overlaps(next))
	assert.False(t, next.Overlaps(first))
}

func TestOverlapsOneMinuteIntrusion(t *testing.T) {
	first := schedule.Occupied(at(t, "2026-10-01T10:00:00Z"), 105, 30*time.Minute)
	tooEarly := schedule.Occupied(at(t, "2026-10-01T12:14:00Z"), 105, 30*time.Minute)

	assert.True(t, first.Overlaps(tooEarly))
	assert.True(t, tooEarly.Overlaps(first))
}

func TestOverlapsContainment(t *testing.T) {
	long := schedule.Interval{Start: at(t, "2026-10-01T10:00:00Z"), End: at(t, "2026-10-01T16:00:00Z")}
	inner := schedule.Interval{Start: at(t, "2026-10-01T12:00:00Z"), End: at(t, "2026-10-01T13:00:00Z")}

	assert.True(t, long.Overlaps(inner))
	assert.True(t, inner.Overlaps(long))
}

func TestParseSlot(t *testing.T) {
	sl, err := schedule.ParseSlot("18:30")
	require.NoError(t, err)
	assert.Equal(t, 18, sl.Hour)
	assert.Equal(t, 30, sl.Minute)

	_, err = schedule.ParseSlot("25:00")
	assert.ErrorIs(t, err, schedule.ErrBadSlot)
	_, err = schedule.ParseSlot("io:oo")
	assert.ErrorIs(t, err, schedule.ErrBadSlot)
}

func TestExpandGeneratesDateSlotGrid(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	from := at(t, "2026-10-01T00:00:00Z")
	to := at(t, "2026-10-03T00:00:00Z")
	slots := []schedule.Slot{{Hour: 10, Minute: 0}, {Hour: 18, Minute: 30}}
	now := at(t, "2026-09-01T00:00:00Z")

	starts, err := schedule.Expand(from, to, slots, loc, now)
	require.NoError(t, err)
	require.Len(t, starts, 6) // 3 days x 2 slots

	// 10:00 IST is 04:30 UTC.
	assert.Equal(t, at(t, "2026-10-01T04:30:00Z"), starts[0])
	assert.Equal(t, at(t, "2026-10-01T13:00:00Z"), starts[1])
	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i].After(starts[i-1]), "expanded starts must be ascending")
	}
}

func TestExpandSkipsPastCandidates(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	day := at(t, "2026-10-01T00:00:00Z")
	slots := []schedule.Slot{{Hour: 10, Minute: 0}, {Hour: 18, Minute: 30}}
	// Noon IST on the same day: the 10:00 slot has already passed.
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, loc)

	starts, err := schedule.Expand(day, day, slots, loc, now)
	require.NoError(t, err)
	require.Len(t, starts, 1)
	assert.Equal(t, at(t, "2026-10-01T13:00:00Z"), starts[0])
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	loc := time.UTC
	_, err := schedule.Expand(
		at(t, "2026-10-05T00:00:00Z"),
		at(t, "2026-10-01T00:00:00Z"),
		[]schedule.Slot{{Hour: 10}},
		loc,
		at(t, "2026-09-01T00:00:00Z"),
	)
	assert.ErrorIs(t, err, schedule.ErrBadRange)
}

func TestConflictErrorMessage(t *testing.T) {
	err := &schedule.ConflictError{
		MovieTitle: "Interstellar",
		Window: schedule.Interval{
			Start: at(t, "2026-10-01T10:00:00Z"),
			End:   at(t, "2026-10-01T13:19:00Z"),
		},
	}
	assert.Contains(t, err.Error(), "Interstellar")
	assert.Contains(t, err.Error(), "2026-10-01T10:00:00Z")
}
