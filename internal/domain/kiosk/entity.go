package kiosk

import "time"

// Session statuses. AwaitingScan is kiosk-local and never persisted.
const (
	StatusPending     = "pending"
	StatusCameraReady = "camera_ready"
	StatusUploading   = "uploading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// Session is the shared pairing record between a phone and a kiosk. The
// phone creates it, the kiosk mutates it, and after completed/failed it is
// terminal until the retention job removes it.
type Session struct {
	ID           string
	KioskID      string
	Token        string
	EmployeeID   string
	EmployeeName string
	CenterID     string
	Status       string

	// GPS asserted by the phone at claim time. The kiosk has no location
	// sense of its own and trusts these.
	UserLatitude  float64
	UserLongitude float64

	Error    *string
	PhotoURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the session reached a final state.
func (s Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// QRPayload is the JSON rendered by the kiosk for the phone to scan.
type QRPayload struct {
	KioskID string `json:"kiosk_id"`
	Token   string `json:"token"`
}
