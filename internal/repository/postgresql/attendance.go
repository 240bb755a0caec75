package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `
	id, employee_id, date, location_id, device_id,
	shift_name, shift_start_minutes, shift_end_minutes,
	time_in, time_out,
	check_in_latitude, check_in_longitude, check_in_distance_m,
	check_out_latitude, check_out_longitude, check_out_distance_m,
	late_minutes, early_minutes,
	break_start, total_break_minutes,
	work_hours, status, note,
	created_at, updated_at`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	var shiftStart, shiftEnd int

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date, &att.LocationID, &att.DeviceID,
		&att.ShiftName, &shiftStart, &shiftEnd,
		&att.TimeIn, &att.TimeOut,
		&att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInDistanceMeters,
		&att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutDistanceMeters,
		&att.LateMinutes, &att.EarlyMinutes,
		&att.BreakStart, &att.TotalBreakMinutes,
		&att.WorkHours, &att.Status, &att.Note,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.ShiftStart = schedule.TimeOfDay(shiftStart)
	att.ShiftEnd = schedule.TimeOfDay(shiftEnd)
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, employee_id, date, location_id, device_id,
			shift_name, shift_start_minutes, shift_end_minutes,
			time_in,
			check_in_latitude, check_in_longitude, check_in_distance_m,
			late_minutes, total_break_minutes, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.EmployeeID,
		newAttendance.Date,
		newAttendance.LocationID,
		newAttendance.DeviceID,
		newAttendance.ShiftName,
		newAttendance.ShiftStart.Minutes(),
		newAttendance.ShiftEnd.Minutes(),
		newAttendance.TimeIn,
		newAttendance.CheckInLatitude,
		newAttendance.CheckInLongitude,
		newAttendance.CheckInDistanceMeters,
		newAttendance.LateMinutes,
		newAttendance.TotalBreakMinutes,
		newAttendance.Status,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = $1`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// ListOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) ListOpenSessions(ctx context.Context, employeeID string) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND time_out IS NULL
		ORDER BY time_in DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open session: %w", err)
		}
		sessions = append(sessions, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open sessions: %w", err)
	}

	return sessions, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET time_out = $1,
			check_out_latitude = $2,
			check_out_longitude = $3,
			check_out_distance_m = $4,
			early_minutes = $5,
			break_start = $6,
			total_break_minutes = $7,
			work_hours = $8,
			status = $9,
			note = $10,
			updated_at = NOW()
		WHERE id = $11
	`

	tag, err := q.Exec(ctx, query,
		att.TimeOut,
		att.CheckOutLatitude,
		att.CheckOutLongitude,
		att.CheckOutDistanceMeters,
		att.EarlyMinutes,
		att.BreakStart,
		att.TotalBreakMinutes,
		att.WorkHours,
		att.Status,
		att.Note,
		att.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// ListByEmployeeAndMonth implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) ListByEmployeeAndMonth(ctx context.Context, employeeID string, year int, month int) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	// The date column holds YYYY-MM-DD text; string comparison is date
	// comparison for that format.
	monthStart := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format("2006-01-02")

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND date >= $2
		  AND date < $3
		ORDER BY date ASC, time_in ASC
	`

	rows, err := q.Query(ctx, query, employeeID, monthStart, nextMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by month: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter attendance.HistoryFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	conditions := []string{"employee_id = $1"}
	args := []interface{}{employeeID}

	if filter.StartDate != nil && *filter.StartDate != "" {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendances WHERE ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY time_in DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, total, nil
}

// ListEmployeeIDsByMonth implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) ListEmployeeIDsByMonth(ctx context.Context, year int, month int) ([]string, error) {
	q := GetQuerier(ctx, a.db)

	monthStart := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format("2006-01-02")

	query := `
		SELECT DISTINCT employee_id
		FROM attendances
		WHERE date >= $1 AND date < $2
		ORDER BY employee_id ASC
	`

	rows, err := q.Query(ctx, query, monthStart, nextMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by month: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee ids: %w", err)
	}

	return ids, nil
}
