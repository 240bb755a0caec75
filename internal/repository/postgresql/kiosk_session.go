package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type kioskSessionRepositoryImpl struct {
	db *database.DB
}

func NewKioskSessionRepository(db *database.DB) kiosk.SessionRepository {
	return &kioskSessionRepositoryImpl{db: db}
}

// Create implements kiosk.SessionRepository.
func (k *kioskSessionRepositoryImpl) Create(ctx context.Context, session kiosk.Session) (kiosk.Session, error) {
	q := GetQuerier(ctx, k.db)

	query := `
		INSERT INTO kiosk_sessions (
			id, kiosk_id, token, employee_id, employee_name, center_id,
			status, user_latitude, user_longitude
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		session.ID,
		session.KioskID,
		session.Token,
		session.EmployeeID,
		session.EmployeeName,
		session.CenterID,
		session.Status,
		session.UserLatitude,
		session.UserLongitude,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return kiosk.Session{}, fmt.Errorf("failed to create kiosk session: %w", err)
	}

	return session, nil
}

// GetByID implements kiosk.SessionRepository.
func (k *kioskSessionRepositoryImpl) GetByID(ctx context.Context, id string) (kiosk.Session, error) {
	q := GetQuerier(ctx, k.db)

	query := `
		SELECT id, kiosk_id, token, employee_id, employee_name, center_id,
			   status, user_latitude, user_longitude, error, photo_url,
			   created_at, updated_at
		FROM kiosk_sessions
		WHERE id = $1
	`

	var session kiosk.Session
	err := q.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.KioskID, &session.Token,
		&session.EmployeeID, &session.EmployeeName, &session.CenterID,
		&session.Status, &session.UserLatitude, &session.UserLongitude,
		&session.Error, &session.PhotoURL,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kiosk.Session{}, kiosk.ErrSessionNotFound
		}
		return kiosk.Session{}, fmt.Errorf("failed to get kiosk session: %w", err)
	}

	return session, nil
}

// TransitionStatus implements kiosk.SessionRepository. The status predicate
// in the WHERE clause is what makes claims idempotent: only one caller sees
// a row transition.
func (k *kioskSessionRepositoryImpl) TransitionStatus(ctx context.Context, id string, from string, to string) (bool, error) {
	q := GetQuerier(ctx, k.db)

	query := `
		UPDATE kiosk_sessions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	tag, err := q.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition kiosk session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Update implements kiosk.SessionRepository.
func (k *kioskSessionRepositoryImpl) Update(ctx context.Context, session kiosk.Session) error {
	q := GetQuerier(ctx, k.db)

	query := `
		UPDATE kiosk_sessions
		SET error = $1, photo_url = $2, updated_at = NOW()
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, session.Error, session.PhotoURL, session.ID)
	if err != nil {
		return fmt.Errorf("failed to update kiosk session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return kiosk.ErrSessionNotFound
	}

	return nil
}

// DeleteTerminalBefore implements kiosk.SessionRepository.
func (k *kioskSessionRepositoryImpl) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, k.db)

	query := `
		DELETE FROM kiosk_sessions
		WHERE status IN ($1, $2)
		  AND created_at < $3
	`

	tag, err := q.Exec(ctx, query, kiosk.StatusCompleted, kiosk.StatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal kiosk sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
