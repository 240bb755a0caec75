package schedule

import "context"

// ShiftRepository provides the shift configuration set. The set is small and
// changes rarely; implementations may cache.
type ShiftRepository interface {
	// ListShifts returns all configured shifts, in storage order
	ListShifts(ctx context.Context) ([]Shift, error)
}

// HolidayRepository provides configured holidays.
type HolidayRepository interface {
	// ListHolidays returns holidays falling inside the given month
	ListHolidays(ctx context.Context, year int, month int) ([]Holiday, error)
}
