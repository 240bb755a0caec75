package attendance

import "context"

// AttendanceService is the check-in/check-out session state machine:
// Closed -> Open <-> Paused -> Closed. Every method returns an explicit
// decision; domain errors cross this boundary, panics do not.
type AttendanceService interface {
	// CheckIn opens a session (Closed -> Open). Stale prior-day open
	// sessions are auto-closed first; a same-day open session is a conflict.
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the open session (Open/Paused -> Closed)
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// PauseBreak starts a break on the open session (Open -> Paused)
	PauseBreak(ctx context.Context, employeeID string) (AttendanceResponse, error)

	// ResumeBreak ends the break in progress (Paused -> Open)
	ResumeBreak(ctx context.Context, employeeID string) (AttendanceResponse, error)

	// SessionStatus reports the employee's current state machine position
	SessionStatus(ctx context.Context, employeeID string) (SessionStatusResponse, error)

	// History returns the employee's attendance records
	History(ctx context.Context, employeeID string, filter HistoryFilter) (ListAttendanceResponse, error)
}
