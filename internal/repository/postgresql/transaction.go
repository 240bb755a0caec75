package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction. The transaction
// is exposed to repositories through the context, so repository calls made
// with the returned context share it.
func WithTransaction(ctx context.Context, db *database.DB, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback failed during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetQuerier returns either the active transaction or the pool.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

type sessionLocker struct {
	db *database.DB
}

// NewSessionLocker returns an attendance.SessionLocker backed by a
// transaction-scoped advisory lock keyed on the employee id. Check-in uses
// it to serialize the open-session check against concurrent attempts from
// the phone and a kiosk.
func NewSessionLocker(db *database.DB) attendance.SessionLocker {
	return &sessionLocker{db: db}
}

func (l *sessionLocker) WithEmployeeLock(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, l.db)
		if _, err := q.Exec(txCtx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID); err != nil {
			return fmt.Errorf("acquire employee lock: %w", err)
		}
		return fn(txCtx)
	})
}
