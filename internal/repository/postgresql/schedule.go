package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

// ListShifts implements schedule.ShiftRepository.
func (s *shiftRepositoryImpl) ListShifts(ctx context.Context) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT name, start_minutes, end_minutes, break_point_minutes
		FROM shifts
		ORDER BY start_minutes ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		var shift schedule.Shift
		var start, end, breakPoint int
		if err := rows.Scan(&shift.Name, &start, &end, &breakPoint); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shift.Start = schedule.TimeOfDay(start)
		shift.End = schedule.TimeOfDay(end)
		shift.BreakPoint = schedule.TimeOfDay(breakPoint)
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, nil
}

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) schedule.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// ListHolidays implements schedule.HolidayRepository.
func (h *holidayRepositoryImpl) ListHolidays(ctx context.Context, year int, month int) ([]schedule.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	monthStart := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format("2006-01-02")

	query := `
		SELECT date, name
		FROM holidays
		WHERE date >= $1 AND date < $2
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, monthStart, nextMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []schedule.Holiday
	for rows.Next() {
		var holiday schedule.Holiday
		if err := rows.Scan(&holiday.Date, &holiday.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, holiday)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}
