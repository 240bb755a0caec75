package kiosk

import "context"

// SessionService is the phone-facing side of the pairing protocol.
type SessionService interface {
	// CreateSession validates the phone's GPS against the employee's
	// geofence and creates a pending session carrying that GPS
	CreateSession(ctx context.Context, req CreateSessionRequest) (SessionResponse, error)

	// GetSession reads a session by id
	GetSession(ctx context.Context, id string) (SessionResponse, error)

	// WaitForResult blocks until the session reaches a terminal state or
	// the pairing timeout elapses. On timeout the returned session carries
	// failed status locally; the persisted record may still resolve later
	// and must be treated as stale by the caller.
	WaitForResult(ctx context.Context, id string) (SessionResponse, error)
}
