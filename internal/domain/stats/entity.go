package stats

import "time"

// MonthlyStats is the fully recomputed aggregate for one (employee, month,
// year). Every trigger replaces the previous document wholesale, so the
// aggregator is idempotent by construction.
type MonthlyStats struct {
	EmployeeID string
	Year       int
	Month      int // 1-12

	WorkDayCredits    float64 // full days 1.0, half days 0.5, excused 1.0
	PaidLeaveDays     float64
	ExcusedDays       int
	HolidayCredits    float64
	LateMinutes       int
	EarlyMinutes      int
	ErrorCount        int // missing-checkout days strictly in the past
	WorkHours         float64
	AttendanceRecords int

	GeneratedAt time.Time
}
