package attendance

import (
	"time"

	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
)

// Attendance statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// Attendance is one work session. The engine creates it at check-in,
// mutates it through pause/resume and once at check-out, and never deletes
// it. At most one record per employee may have a nil TimeOut at any moment.
type Attendance struct {
	ID         string // {employee_id}_{epoch_millis}
	EmployeeID string
	Date       string // YYYY-MM-DD, the local work day
	LocationID string
	DeviceID   *string

	// Shift snapshot, copied at check-in so later configuration changes do
	// not retroactively alter history.
	ShiftName  string
	ShiftStart schedule.TimeOfDay
	ShiftEnd   schedule.TimeOfDay

	TimeIn  time.Time
	TimeOut *time.Time

	CheckInLatitude        float64
	CheckInLongitude       float64
	CheckInDistanceMeters  float64
	CheckOutLatitude       *float64
	CheckOutLongitude      *float64
	CheckOutDistanceMeters *float64

	LateMinutes  int
	EarlyMinutes *int

	// Break tracking. BreakStart is set while a pause is in progress;
	// TotalBreakMinutes accumulates across pause/resume cycles.
	BreakStart        *time.Time
	TotalBreakMinutes int

	WorkHours *float64

	Status string
	Note   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the session has not been checked out.
func (a Attendance) IsOpen() bool {
	return a.TimeOut == nil
}

// IsPaused reports whether a break is in progress.
func (a Attendance) IsPaused() bool {
	return a.BreakStart != nil
}
