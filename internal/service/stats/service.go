package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/leave"
	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/presensia/presensia-backend-go/internal/domain/stats"
)

type StatsServiceImpl struct {
	attendance.AttendanceRepository
	leave.LeaveRequestRepository
	leave.ExplanationRepository
	schedule.HolidayRepository
	stats.StatsRepository

	cfg config.AttendanceConfig

	now func() time.Time
}

func NewStatsService(
	attendanceRepo attendance.AttendanceRepository,
	leaveRepo leave.LeaveRequestRepository,
	explanationRepo leave.ExplanationRepository,
	holidayRepo schedule.HolidayRepository,
	statsRepo stats.StatsRepository,
	cfg config.AttendanceConfig,
) *StatsServiceImpl {
	return &StatsServiceImpl{
		AttendanceRepository:   attendanceRepo,
		LeaveRequestRepository: leaveRepo,
		ExplanationRepository:  explanationRepo,
		HolidayRepository:      holidayRepo,
		StatsRepository:        statsRepo,
		cfg:                    cfg,
		now:                    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *StatsServiceImpl) WithClock(now func() time.Time) *StatsServiceImpl {
	s.now = now
	return s
}

// dayEntry accumulates everything known about one calendar day before the
// override rules are applied.
type dayEntry struct {
	workHours       float64
	lateMinutes     int
	earlyMinutes    int
	hasAttendance   bool
	missingCheckout bool
	excused         bool
}

// Recompute implements stats.Recomputer. The month is rebuilt from scratch
// on every call and the stored document replaced wholesale, so concurrent
// or repeated triggers converge on the same result.
func (s *StatsServiceImpl) Recompute(ctx context.Context, employeeID string, year int, month int) (stats.MonthlyStats, error) {
	records, err := s.AttendanceRepository.ListByEmployeeAndMonth(ctx, employeeID, year, month)
	if err != nil {
		return stats.MonthlyStats{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	leaves, err := s.LeaveRequestRepository.ListApprovedOverlappingMonth(ctx, employeeID, year, month)
	if err != nil {
		return stats.MonthlyStats{}, fmt.Errorf("failed to list approved leave: %w", err)
	}

	explanations, err := s.ExplanationRepository.ListApprovedByMonth(ctx, employeeID, year, month)
	if err != nil {
		return stats.MonthlyStats{}, fmt.Errorf("failed to list approved explanations: %w", err)
	}

	holidays, err := s.HolidayRepository.ListHolidays(ctx, year, month)
	if err != nil {
		return stats.MonthlyStats{}, fmt.Errorf("failed to list holidays: %w", err)
	}

	today := s.now().Format("2006-01-02")
	days := make(map[string]*dayEntry)
	entry := func(date string) *dayEntry {
		if e, ok := days[date]; ok {
			return e
		}
		e := &dayEntry{}
		days[date] = e
		return e
	}

	// More than one record per day is possible (auto-closed stale session
	// plus a fresh one), so per-day values are summed.
	for _, record := range records {
		e := entry(record.Date)
		e.hasAttendance = true
		e.lateMinutes += record.LateMinutes
		if record.EarlyMinutes != nil {
			e.earlyMinutes += *record.EarlyMinutes
		}
		if record.WorkHours != nil {
			e.workHours += *record.WorkHours
		}
		if (record.IsOpen() || record.Status == attendance.StatusInvalid) && record.Date < today {
			e.missingCheckout = true
		}
	}

	result := stats.MonthlyStats{
		EmployeeID:        employeeID,
		Year:              year,
		Month:             month,
		AttendanceRecords: len(records),
		GeneratedAt:       s.now(),
	}

	firstOfMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := firstOfMonth.AddDate(0, 1, -1).Day()

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

		for _, l := range leaves {
			if !l.Covers(date) {
				continue
			}
			entry(date).excused = true
			if l.IsPaidType() {
				result.PaidLeaveDays++
			}
		}
	}

	for _, ex := range explanations {
		entry(ex.Date).excused = true
	}

	for day := 1; day <= daysInMonth; day++ {
		dayDate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		date := dayDate.Format("2006-01-02")
		e, ok := days[date]
		if !ok {
			e = &dayEntry{}
		}

		result.WorkHours += e.workHours

		switch {
		case e.excused:
			// An excused day is worth a full day regardless of what the
			// attendance records say, and never produces lateness or errors.
			result.WorkDayCredits += 1.0
			result.ExcusedDays++

		case e.hasAttendance:
			switch {
			case e.workHours >= s.cfg.FullDayHours:
				result.WorkDayCredits += 1.0
			case e.workHours >= s.cfg.HalfDayHours:
				result.WorkDayCredits += 0.5
			}
			result.LateMinutes += e.lateMinutes
			result.EarlyMinutes += e.earlyMinutes
			if e.missingCheckout {
				result.ErrorCount++
			}

		case s.isHoliday(date, holidays) && !s.isWeekOff(dayDate.Weekday()):
			result.HolidayCredits += 1.0
		}
	}

	if err := s.StatsRepository.Replace(ctx, result); err != nil {
		return stats.MonthlyStats{}, fmt.Errorf("failed to replace monthly stats: %w", err)
	}

	return result, nil
}

// GetMonthly returns the stored aggregate for a key.
func (s *StatsServiceImpl) GetMonthly(ctx context.Context, employeeID string, year int, month int) (stats.MonthlyStats, error) {
	return s.StatsRepository.Get(ctx, employeeID, year, month)
}

func (s *StatsServiceImpl) isHoliday(date string, holidays []schedule.Holiday) bool {
	for _, h := range holidays {
		if h.Date == date {
			return true
		}
	}
	return false
}

func (s *StatsServiceImpl) isWeekOff(day time.Weekday) bool {
	for _, off := range s.cfg.WeekOffDays {
		if off == day {
			return true
		}
	}
	return false
}
