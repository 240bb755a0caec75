package kiosk

import (
	"context"
	"time"
)

// SessionRepository persists pairing sessions. The store is the only
// synchronization point between the phone and the kiosk; change
// notifications ride the realtime hub but the record is authoritative.
type SessionRepository interface {
	// Create persists a new session in pending status
	Create(ctx context.Context, session Session) (Session, error)

	// GetByID retrieves a session by id
	GetByID(ctx context.Context, id string) (Session, error)

	// TransitionStatus atomically moves a session from one status to
	// another. It returns false when the session is no longer in the
	// expected status, which makes claims and terminal writes idempotent
	// under duplicate deliveries.
	TransitionStatus(ctx context.Context, id string, from string, to string) (bool, error)

	// Update persists mutable fields (error string, photo URL)
	Update(ctx context.Context, session Session) error

	// DeleteTerminalBefore removes completed/failed sessions older than the
	// cutoff and returns how many were removed. Used by the retention job.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
