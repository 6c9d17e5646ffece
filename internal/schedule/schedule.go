// Package schedule keeps every piece of showtime interval math in one
// place.  Instants are stored and compared in UTC; the canonical
// business timezone only enters when expanding date + time-of-day
// slots into concrete start instants.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Occupied returns the window a screening blocks on its screen: the
// movie runtime plus the changeover buffer, starting at startsAt.
func Occupied(startsAt time.Time, durationMin uint32, buffer time.Duration) Interval {
	return Interval{
		Start: startsAt,
		End:   startsAt.Add(time.Duration(durationMin)*time.Minute + buffer),
	}
}

// Overlaps tests half-open overlap: [s1,e1) and [s2,e2) collide iff
// s1 < e2 && e1 > s2.  Touching boundaries do not overlap, so a show
// may start exactly when the previous one's buffer ends.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// ConflictError reports a scheduling collision, naming the colliding
// movie and its occupied window.
type ConflictError struct {
	MovieTitle string
	Window     Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlaps %q scheduled %s - %s",
		e.MovieTitle,
		e.Window.Start.Format(time.RFC3339),
		e.Window.End.Format(time.RFC3339))
}

var (
	// ErrBadSlot is returned for a time-of-day slot not in HH:MM form.
	ErrBadSlot = errors.New("slot must be in HH:MM format")
	// ErrBadRange is returned when a batch date range is inverted.
	ErrBadRange = errors.New("end date is before start date")
)

// Slot is a time of day in the canonical timezone.
type Slot struct {
	Hour   int
	Minute int
}

// ParseSlot parses "HH:MM" into a Slot.
func ParseSlot(s string) (Slot, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Slot{}, ErrBadSlot
	}
	return Slot{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Expand generates one candidate start instant per (date x slot) over
// the inclusive date range [from, to], interpreted in loc and returned
// in UTC, ascending.  Candidates whose start is not after now are
// skipped: a batch that begins today should not try to schedule slots
// that have already passed.  The from/to values are dates; their time
// components are ignored.
func Expand(from, to time.Time, slots []Slot, loc *time.Location, now time.Time) ([]time.Time, error) {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	if toDay.Before(fromDay) {
		return nil, ErrBadRange
	}
	var out []time.Time
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		for _, sl := range slots {
			start := time.Date(day.Year(), day.Month(), day.Day(), sl.Hour, sl.Minute, 0, 0, loc)
			if !start.After(now) {
				continue
			}
			out = append(out, start.UTC())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
