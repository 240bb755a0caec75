package schedule

import (
	"sort"

	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
)

// Resolve returns the shift in session at the given time-of-day.
//
// Shifts partition the day using only a start time and a break-point
// "commit point" per shift: walking the shifts sorted by start, the first
// one whose break-point boundary has not yet passed is current. A break
// point numerically earlier than its shift's start means the boundary falls
// after midnight, so it gets a +24h adjustment before comparison.
//
// Times after midnight that are still covered by an overnight shift (now <=
// its break point) resolve to that shift. Any other time before the first
// shift's start counts as "about to start the first shift". Past every
// boundary, the last shift is the fallback.
func Resolve(now schedule.TimeOfDay, shifts []schedule.Shift) (schedule.Shift, error) {
	if len(shifts) == 0 {
		return schedule.Shift{}, schedule.ErrNoShiftsConfigured
	}

	sorted := make([]schedule.Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	last := sorted[len(sorted)-1]

	// Still inside yesterday's overnight shift.
	if last.BreakPoint < last.Start && now <= last.BreakPoint {
		return last, nil
	}

	if now < sorted[0].Start {
		return sorted[0], nil
	}

	for _, s := range sorted {
		boundary := s.BreakPoint.Minutes()
		if s.BreakPoint < s.Start {
			boundary += schedule.MinutesPerDay
		}
		if boundary >= now.Minutes() {
			return s, nil
		}
	}

	return last, nil
}
