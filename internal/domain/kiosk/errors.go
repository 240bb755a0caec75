package kiosk

import "errors"

// Kiosk domain errors
var (
	ErrSessionNotFound   = errors.New("no matching pairing session")
	ErrTokenMismatch     = errors.New("pairing token does not match")
	ErrKioskBusy         = errors.New("kiosk already has a session in flight")
	ErrPairingTimeout    = errors.New("kiosk handshake timed out")
	ErrCameraUnavailable = errors.New("camera error")
	ErrUploadFailed      = errors.New("upload error")
	ErrUnknownKiosk      = errors.New("kiosk not registered")
)
