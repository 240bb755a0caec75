package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrSessionOpenToday = errors.New("finish today's session first")
	ErrNoOpenSession    = errors.New("no open session to check out")
	ErrAlreadyPaused    = errors.New("a break is already in progress")
	ErrNotPaused        = errors.New("no break in progress")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
