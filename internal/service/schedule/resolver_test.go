package schedule

import (
	"testing"

	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tod(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	v, err := schedule.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func threeShifts(t *testing.T) []schedule.Shift {
	t.Helper()
	return []schedule.Shift{
		{Name: "Morning", Start: tod(t, "06:00"), End: tod(t, "14:00"), BreakPoint: tod(t, "13:00")},
		{Name: "Evening", Start: tod(t, "14:00"), End: tod(t, "22:00"), BreakPoint: tod(t, "21:00")},
		{Name: "Night", Start: tod(t, "22:00"), End: tod(t, "06:00"), BreakPoint: tod(t, "05:00")},
	}
}

func TestResolveBeforeFirstShiftReturnsFirst(t *testing.T) {
	shifts := []schedule.Shift{
		{Name: "Morning", Start: tod(t, "08:00"), End: tod(t, "16:00"), BreakPoint: tod(t, "15:00")},
		{Name: "Evening", Start: tod(t, "16:00"), End: tod(t, "23:00"), BreakPoint: tod(t, "22:00")},
	}

	for _, now := range []string{"00:00", "05:30", "07:59"} {
		s, err := Resolve(tod(t, now), shifts)
		require.NoError(t, err)
		assert.Equal(t, "Morning", s.Name, "at %s", now)
	}
}

func TestResolveWalksBoundaries(t *testing.T) {
	shifts := threeShifts(t)

	cases := map[string]string{
		"06:00": "Morning",
		"12:59": "Morning",
		"13:00": "Morning", // boundary is inclusive
		"13:01": "Evening",
		"20:00": "Evening",
		"21:30": "Night",
	}
	for now, want := range cases {
		s, err := Resolve(tod(t, now), shifts)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name, "at %s", now)
	}
}

func TestResolveOvernightShiftCoversPastMidnight(t *testing.T) {
	shifts := threeShifts(t)

	// Night runs 22:00 -> 06:00 with break point 05:00; it must be current
	// for all times between its start and break point + 24h.
	for _, now := range []string{"22:00", "23:30", "00:10", "03:00", "05:00"} {
		s, err := Resolve(tod(t, now), shifts)
		require.NoError(t, err)
		assert.Equal(t, "Night", s.Name, "at %s", now)
	}

	// Past the overnight boundary, the next day starts.
	s, err := Resolve(tod(t, "05:01"), shifts)
	require.NoError(t, err)
	assert.Equal(t, "Morning", s.Name)
}

func TestResolvePastEveryBoundaryReturnsLast(t *testing.T) {
	shifts := []schedule.Shift{
		{Name: "Day", Start: tod(t, "09:00"), End: tod(t, "17:00"), BreakPoint: tod(t, "16:00")},
	}

	s, err := Resolve(tod(t, "23:00"), shifts)
	require.NoError(t, err)
	assert.Equal(t, "Day", s.Name)
}

func TestResolveInputOrderDoesNotMatter(t *testing.T) {
	shifts := threeShifts(t)
	reversed := []schedule.Shift{shifts[2], shifts[0], shifts[1]}

	a, err := Resolve(tod(t, "15:00"), shifts)
	require.NoError(t, err)
	b, err := Resolve(tod(t, "15:00"), reversed)
	require.NoError(t, err)
	assert.Equal(t, a.Name, b.Name)
}

func TestResolveEmptyConfig(t *testing.T) {
	_, err := Resolve(tod(t, "09:00"), nil)
	assert.ErrorIs(t, err, schedule.ErrNoShiftsConfigured)
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := schedule.ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, v.Minutes())
	assert.Equal(t, "09:30", v.String())

	_, err = schedule.ParseTimeOfDay("24:30")
	assert.Error(t, err)
}
