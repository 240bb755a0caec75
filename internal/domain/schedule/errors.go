package schedule

import "errors"

var (
	ErrNoShiftsConfigured = errors.New("no shifts configured")
)
