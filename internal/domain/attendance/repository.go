package attendance

import "context"

// AttendanceRepository defines data access for attendance records. The store
// is the single source of truth between the phone and kiosk actors.
type AttendanceRepository interface {
	// Create persists a new attendance record
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves an attendance record by id
	GetByID(ctx context.Context, id string) (Attendance, error)

	// ListOpenSessions returns every record for the employee with an empty
	// time-out, newest first. More than one result indicates a violated
	// invariant the caller must recover from.
	ListOpenSessions(ctx context.Context, employeeID string) ([]Attendance, error)

	// Update persists changes to an existing record
	Update(ctx context.Context, attendance Attendance) error

	// ListByEmployeeAndMonth returns the employee's records for a month,
	// ordered by date ascending
	ListByEmployeeAndMonth(ctx context.Context, employeeID string, year int, month int) ([]Attendance, error)

	// ListByEmployee returns the employee's records filtered and paginated
	ListByEmployee(ctx context.Context, employeeID string, filter HistoryFilter) ([]Attendance, int64, error)

	// ListEmployeeIDsByMonth returns the distinct employees with at least
	// one record in the month. The stats sweep iterates them.
	ListEmployeeIDsByMonth(ctx context.Context, year int, month int) ([]string, error)
}

// SessionLocker serializes an employee's check-in critical section across
// concurrent callers (phone and kiosk racing each other). Implementations
// run fn inside whatever mutual-exclusion scope they provide; the ctx passed
// to fn must be used for all repository calls inside it.
type SessionLocker interface {
	WithEmployeeLock(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error
}
