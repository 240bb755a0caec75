package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/notification"
	"github.com/presensia/presensia-backend-go/internal/domain/stats"
)

// NewStatsSweepJob returns the periodic stats job. It recomputes the current
// month for every employee with activity, catching anything the write-path
// triggers missed, and once per month on the configured lock day announces
// that the previous month's numbers are final.
func NewStatsSweepJob(
	attendanceRepo attendance.AttendanceRepository,
	recomputer stats.Recomputer,
	dispatcher notification.Dispatcher,
	cfg config.AttendanceConfig,
) func(ctx context.Context) error {
	var announcedMonth string

	return func(ctx context.Context) error {
		now := time.Now()
		year, month := now.Year(), int(now.Month())

		ids, err := attendanceRepo.ListEmployeeIDsByMonth(ctx, year, month)
		if err != nil {
			return fmt.Errorf("list employees for sweep: %w", err)
		}

		var failed int
		for _, employeeID := range ids {
			if _, err := recomputer.Recompute(ctx, employeeID, year, month); err != nil {
				slog.Error("stats sweep recompute failed", "employee_id", employeeID, "error", err)
				failed++
			}
		}
		slog.Info("stats sweep finished", "year", year, "month", month, "employees", len(ids), "failed", failed)

		if now.Day() != cfg.MonthLockDay {
			return nil
		}

		prev := now.AddDate(0, -1, 0)
		prevKey := prev.Format("2006-01")
		if announcedMonth == prevKey {
			return nil
		}

		prevIDs, err := attendanceRepo.ListEmployeeIDsByMonth(ctx, prev.Year(), int(prev.Month()))
		if err != nil {
			return fmt.Errorf("list employees for lock announcement: %w", err)
		}

		for _, employeeID := range prevIDs {
			// Final recompute before the month is considered locked.
			if _, err := recomputer.Recompute(ctx, employeeID, prev.Year(), int(prev.Month())); err != nil {
				slog.Error("final recompute failed", "employee_id", employeeID, "error", err)
				continue
			}
			if dispatcher != nil {
				dispatcher.Dispatch(ctx, notification.Message{
					RecipientID: employeeID,
					Title:       "Monthly attendance locked",
					Body:        fmt.Sprintf("Your attendance summary for %s is final.", prevKey),
					Data:        map[string]interface{}{"period": prevKey},
				})
			}
		}

		announcedMonth = prevKey
		slog.Info("monthly stats locked", "period", prevKey, "employees", len(prevIDs))
		return nil
	}
}
