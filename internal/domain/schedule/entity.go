package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Shift math works on this representation so overnight wraparound is a
// plain +24h (+1440 minute) adjustment.
type TimeOfDay int

const MinutesPerDay = 1440

// ParseTimeOfDay parses an "HH:MM" 24-hour clock string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// FromClock extracts the time-of-day from a timestamp in its own location.
func FromClock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Minutes returns the value as an int for arithmetic.
func (t TimeOfDay) Minutes() int { return int(t) }

// Shift is a named daily time window. BreakPoint is the boundary after which
// the next shift, not this one, is considered current; for overnight shifts
// it is numerically smaller than Start.
type Shift struct {
	Name       string
	Start      TimeOfDay
	End        TimeOfDay
	BreakPoint TimeOfDay
}

// Holiday is a configured non-working calendar date.
type Holiday struct {
	Date string // YYYY-MM-DD
	Name string
}
