package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/stats"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type statsRepositoryImpl struct {
	db *database.DB
}

func NewStatsRepository(db *database.DB) stats.StatsRepository {
	return &statsRepositoryImpl{db: db}
}

// Replace implements stats.StatsRepository. The upsert overwrites every
// aggregated column, never patches, so a recompute fully supersedes the
// previous document.
func (s *statsRepositoryImpl) Replace(ctx context.Context, monthly stats.MonthlyStats) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO monthly_stats (
			employee_id, year, month,
			work_day_credits, paid_leave_days, excused_days, holiday_credits,
			late_minutes, early_minutes, error_count, work_hours,
			attendance_records, generated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (employee_id, year, month) DO UPDATE SET
			work_day_credits = EXCLUDED.work_day_credits,
			paid_leave_days = EXCLUDED.paid_leave_days,
			excused_days = EXCLUDED.excused_days,
			holiday_credits = EXCLUDED.holiday_credits,
			late_minutes = EXCLUDED.late_minutes,
			early_minutes = EXCLUDED.early_minutes,
			error_count = EXCLUDED.error_count,
			work_hours = EXCLUDED.work_hours,
			attendance_records = EXCLUDED.attendance_records,
			generated_at = EXCLUDED.generated_at
	`

	_, err := q.Exec(ctx, query,
		monthly.EmployeeID, monthly.Year, monthly.Month,
		monthly.WorkDayCredits, monthly.PaidLeaveDays, monthly.ExcusedDays, monthly.HolidayCredits,
		monthly.LateMinutes, monthly.EarlyMinutes, monthly.ErrorCount, monthly.WorkHours,
		monthly.AttendanceRecords, monthly.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to replace monthly stats: %w", err)
	}

	return nil
}

// Get implements stats.StatsRepository.
func (s *statsRepositoryImpl) Get(ctx context.Context, employeeID string, year int, month int) (stats.MonthlyStats, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT employee_id, year, month,
			   work_day_credits, paid_leave_days, excused_days, holiday_credits,
			   late_minutes, early_minutes, error_count, work_hours,
			   attendance_records, generated_at
		FROM monthly_stats
		WHERE employee_id = $1 AND year = $2 AND month = $3
	`

	var monthly stats.MonthlyStats
	err := q.QueryRow(ctx, query, employeeID, year, month).Scan(
		&monthly.EmployeeID, &monthly.Year, &monthly.Month,
		&monthly.WorkDayCredits, &monthly.PaidLeaveDays, &monthly.ExcusedDays, &monthly.HolidayCredits,
		&monthly.LateMinutes, &monthly.EarlyMinutes, &monthly.ErrorCount, &monthly.WorkHours,
		&monthly.AttendanceRecords, &monthly.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.MonthlyStats{}, stats.ErrStatsNotFound
		}
		return stats.MonthlyStats{}, fmt.Errorf("failed to get monthly stats: %w", err)
	}

	return monthly, nil
}
