package stats

import "context"

// StatsRepository persists monthly aggregates.
type StatsRepository interface {
	// Replace upserts the stats document for its (employee, year, month) key
	Replace(ctx context.Context, stats MonthlyStats) error

	// Get retrieves the stats document for a key
	Get(ctx context.Context, employeeID string, year int, month int) (MonthlyStats, error)
}

// Recomputer is the trigger surface the attendance and kiosk paths use to
// request a recompute for the month a record falls in. Implementations must
// tolerate concurrent triggers for the same key.
type Recomputer interface {
	Recompute(ctx context.Context, employeeID string, year int, month int) (MonthlyStats, error)
}
