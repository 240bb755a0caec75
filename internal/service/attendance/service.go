package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/employee"
	"github.com/presensia/presensia-backend-go/internal/domain/location"
	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/presensia/presensia-backend-go/internal/domain/stats"
	"github.com/presensia/presensia-backend-go/internal/pkg/geo"
	"github.com/presensia/presensia-backend-go/internal/pkg/realtime"
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
	scheduleService "github.com/presensia/presensia-backend-go/internal/service/schedule"
)

const autoCloseNote = "auto-closed: no check-out recorded for this day"

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	location.LocationRepository
	schedule.ShiftRepository

	cfg        config.AttendanceConfig
	recomputer stats.Recomputer
	hub        *realtime.Hub
	locker     attendance.SessionLocker

	// Injected clock so the session math is testable at fixed instants.
	now func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	locationRepo location.LocationRepository,
	shiftRepo schedule.ShiftRepository,
	cfg config.AttendanceConfig,
	recomputer stats.Recomputer,
	hub *realtime.Hub,
	locker attendance.SessionLocker,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		LocationRepository:   locationRepo,
		ShiftRepository:      shiftRepo,
		cfg:                  cfg,
		recomputer:           recomputer,
		hub:                  hub,
		locker:               locker,
		now:                  time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (a *AttendanceServiceImpl) WithClock(now func() time.Time) *AttendanceServiceImpl {
	a.now = now
	return a
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	lat, lng, err := geo.Normalize(req.Latitude, req.Longitude)
	if err != nil {
		return attendance.AttendanceResponse{}, validator.ValidationErrors{{
			Field:   "latitude",
			Message: err.Error(),
		}}
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	places, err := a.permittedPlaces(ctx, emp)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	place, distance, err := geo.Nearest(lat, lng, places)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve nearest location: %w", err)
	}
	if err := geo.Validate(distance, place, a.cfg.DefaultRadiusMeters); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	shifts, err := a.ShiftRepository.ListShifts(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	now := a.now()
	today := now.Format("2006-01-02")
	nowTod := schedule.FromClock(now)

	shift, err := scheduleService.Resolve(nowTod, shifts)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// The open-session check and the insert must be atomic: the phone and a
	// kiosk can race on the same employee.
	var created attendance.Attendance
	err = a.withEmployeeLock(ctx, req.EmployeeID, func(ctx context.Context) error {
		// Recover from missed check-outs: close every open session from a
		// previous day before judging today's state.
		openSessions, err := a.AttendanceRepository.ListOpenSessions(ctx, req.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to list open sessions: %w", err)
		}

		openToday := false
		for _, open := range openSessions {
			if open.Date == today {
				openToday = true
				continue
			}
			if err := a.autoCloseStale(ctx, open); err != nil {
				return fmt.Errorf("failed to auto-close stale session %s: %w", open.ID, err)
			}
		}

		if openToday {
			return attendance.ErrSessionOpenToday
		}

		record := attendance.Attendance{
			ID:         fmt.Sprintf("%s_%d", req.EmployeeID, now.UnixMilli()),
			EmployeeID: req.EmployeeID,
			Date:       today,
			LocationID: place.ID,
			DeviceID:   req.DeviceID,

			ShiftName:  shift.Name,
			ShiftStart: shift.Start,
			ShiftEnd:   shift.End,

			TimeIn: now,

			CheckInLatitude:       lat,
			CheckInLongitude:      lng,
			CheckInDistanceMeters: distance,

			LateMinutes: lateness(nowTod, shift, a.cfg.LateToleranceMinutes),
			Status:      attendance.StatusValid,
		}

		created, err = a.AttendanceRepository.Create(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	resp := mapToResponse(created)
	a.publish(created.EmployeeID, "session_opened", resp)
	a.triggerRecompute(ctx, created.EmployeeID, created.Date)

	return resp, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.mostRecentOpenSession(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now()

	// Geofence the check-out against the check-in location when the phone
	// supplied coordinates.
	if req.Latitude != nil && req.Longitude != nil {
		lat, lng, err := geo.Normalize(*req.Latitude, *req.Longitude)
		if err != nil {
			return attendance.AttendanceResponse{}, validator.ValidationErrors{{
				Field:   "latitude",
				Message: err.Error(),
			}}
		}

		loc, err := a.LocationRepository.GetByID(ctx, record.LocationID)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get check-in location: %w", err)
		}

		place := toPlace(loc)
		distance := geo.HaversineDistance(lat, lng, place.Latitude, place.Longitude)
		if err := geo.Validate(distance, place, a.cfg.DefaultRadiusMeters); err != nil {
			return attendance.AttendanceResponse{}, err
		}

		record.CheckOutLatitude = &lat
		record.CheckOutLongitude = &lng
		record.CheckOutDistanceMeters = &distance
	}

	// A check-out from Paused folds the outstanding break first.
	if record.IsPaused() {
		record.TotalBreakMinutes += int(now.Sub(*record.BreakStart).Minutes())
		record.BreakStart = nil
	}

	inMin := schedule.FromClock(record.TimeIn).Minutes()
	outMin := schedule.FromClock(now).Minutes()
	if outMin < inMin {
		// Overnight shift: check-out is on the next calendar day.
		outMin += schedule.MinutesPerDay
	}

	grossMinutes := outMin - inMin
	lunchMinutes, err := a.lunchOverlap(inMin, outMin)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	netMinutes := grossMinutes - lunchMinutes - record.TotalBreakMinutes
	if netMinutes < 0 {
		netMinutes = 0
	}
	workHours := float64(netMinutes) / 60.0

	earlyMinutes := earliness(outMin, record.ShiftStart, record.ShiftEnd)

	record.TimeOut = &now
	record.WorkHours = &workHours
	record.EarlyMinutes = &earlyMinutes

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	resp := mapToResponse(record)
	a.publish(record.EmployeeID, "session_closed", resp)
	a.triggerRecompute(ctx, record.EmployeeID, record.Date)

	return resp, nil
}

// PauseBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PauseBreak(ctx context.Context, employeeID string) (attendance.AttendanceResponse, error) {
	record, err := a.mostRecentOpenSession(ctx, employeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if record.IsPaused() {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyPaused
	}

	now := a.now()
	record.BreakStart = &now

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	resp := mapToResponse(record)
	a.publish(employeeID, "break_started", resp)
	return resp, nil
}

// ResumeBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ResumeBreak(ctx context.Context, employeeID string) (attendance.AttendanceResponse, error) {
	record, err := a.mostRecentOpenSession(ctx, employeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if !record.IsPaused() {
		return attendance.AttendanceResponse{}, attendance.ErrNotPaused
	}

	elapsed := int(a.now().Sub(*record.BreakStart).Minutes())
	if elapsed < 0 {
		elapsed = 0
	}
	record.TotalBreakMinutes += elapsed
	record.BreakStart = nil

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	resp := mapToResponse(record)
	a.publish(employeeID, "break_ended", resp)
	return resp, nil
}

// SessionStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SessionStatus(ctx context.Context, employeeID string) (attendance.SessionStatusResponse, error) {
	openSessions, err := a.AttendanceRepository.ListOpenSessions(ctx, employeeID)
	if err != nil {
		return attendance.SessionStatusResponse{}, fmt.Errorf("failed to list open sessions: %w", err)
	}

	today := a.now().Format("2006-01-02")
	for _, open := range openSessions {
		if open.Date != today {
			// Stale sessions auto-close on the next check-in; they do not
			// block one.
			continue
		}
		resp := mapToResponse(open)
		return attendance.SessionStatusResponse{
			HasOpenSession: true,
			OnBreak:        open.IsPaused(),
			CanCheckOut:    true,
			OpenSession:    &resp,
		}, nil
	}

	return attendance.SessionStatusResponse{CanCheckIn: true}, nil
}

// History implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) History(ctx context.Context, employeeID string, filter attendance.HistoryFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.AttendanceRepository.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapToResponse(record))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		Attendances: responses,
	}, nil
}

func (a *AttendanceServiceImpl) withEmployeeLock(ctx context.Context, employeeID string, fn func(ctx context.Context) error) error {
	if a.locker == nil {
		return fn(ctx)
	}
	return a.locker.WithEmployeeLock(ctx, employeeID, fn)
}

// autoCloseStale closes a prior-day open session with an end-of-day sentinel
// time-out so the new day's check-in can proceed.
func (a *AttendanceServiceImpl) autoCloseStale(ctx context.Context, record attendance.Attendance) error {
	day, err := time.ParseInLocation("2006-01-02", record.Date, record.TimeIn.Location())
	if err != nil {
		return fmt.Errorf("invalid record date %q: %w", record.Date, err)
	}

	endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, record.TimeIn.Location())
	note := autoCloseNote

	record.TimeOut = &endOfDay
	record.BreakStart = nil
	record.Status = attendance.StatusInvalid
	record.Note = &note

	if err := a.AttendanceRepository.Update(ctx, record); err != nil {
		return err
	}

	slog.Info("auto-closed stale attendance session",
		"attendance_id", record.ID,
		"employee_id", record.EmployeeID,
		"date", record.Date,
	)

	a.triggerRecompute(ctx, record.EmployeeID, record.Date)
	return nil
}

// permittedPlaces resolves the employee's geofence candidates: the explicit
// allow-list, every location on the wildcard, or the home location when the
// list is empty.
func (a *AttendanceServiceImpl) permittedPlaces(ctx context.Context, emp employee.Employee) ([]geo.Place, error) {
	var locs []location.Location
	var err error

	switch {
	case emp.HasLocationWildcard():
		locs, err = a.LocationRepository.List(ctx)
	case len(emp.PermittedLocationIDs) > 0:
		locs, err = a.LocationRepository.GetByIDs(ctx, emp.PermittedLocationIDs)
	default:
		var home location.Location
		home, err = a.LocationRepository.GetByID(ctx, emp.HomeLocationID)
		if err == nil {
			locs = []location.Location{home}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permitted locations: %w", err)
	}

	places := make([]geo.Place, 0, len(locs))
	for _, loc := range locs {
		places = append(places, toPlace(loc))
	}
	return places, nil
}

func (a *AttendanceServiceImpl) mostRecentOpenSession(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	openSessions, err := a.AttendanceRepository.ListOpenSessions(ctx, employeeID)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to list open sessions: %w", err)
	}
	if len(openSessions) == 0 {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}

	// Several open sessions should not occur given the check-in invariant;
	// pick the most recently created.
	newest := openSessions[0]
	for _, open := range openSessions[1:] {
		if open.TimeIn.After(newest.TimeIn) {
			newest = open
		}
	}
	return newest, nil
}

// lunchOverlap returns the minutes of the configured lunch window that fall
// inside the [inMin, outMin) work interval. outMin may exceed 24h for
// overnight sessions, so the next day's window is considered too.
func (a *AttendanceServiceImpl) lunchOverlap(inMin, outMin int) (int, error) {
	start, err := schedule.ParseTimeOfDay(a.cfg.LunchStart)
	if err != nil {
		return 0, fmt.Errorf("invalid lunch window start: %w", err)
	}
	end, err := schedule.ParseTimeOfDay(a.cfg.LunchEnd)
	if err != nil {
		return 0, fmt.Errorf("invalid lunch window end: %w", err)
	}

	overlap := intervalOverlap(inMin, outMin, start.Minutes(), end.Minutes())
	overlap += intervalOverlap(inMin, outMin, start.Minutes()+schedule.MinutesPerDay, end.Minutes()+schedule.MinutesPerDay)
	return overlap, nil
}

func intervalOverlap(aStart, aEnd, bStart, bEnd int) int {
	lo := max(aStart, bStart)
	hi := min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// lateness is the minutes past shift start beyond the tolerance, floored at
// zero. A check-in after midnight for an overnight shift is measured in the
// shift's own +24h frame.
func lateness(now schedule.TimeOfDay, shift schedule.Shift, toleranceMinutes int) int {
	nowMin := now.Minutes()
	if shift.BreakPoint < shift.Start && now <= shift.BreakPoint {
		nowMin += schedule.MinutesPerDay
	}

	late := nowMin - shift.Start.Minutes() - toleranceMinutes
	if late < 0 {
		return 0
	}
	return late
}

// earliness is the minutes the check-out precedes shift end. outMin is in
// the same frame as the check-in (may exceed 24h); an overnight shift end
// gets the matching +24h adjustment.
func earliness(outMin int, shiftStart, shiftEnd schedule.TimeOfDay) int {
	endMin := shiftEnd.Minutes()
	if shiftEnd < shiftStart {
		endMin += schedule.MinutesPerDay
	}

	early := endMin - outMin
	if early < 0 {
		return 0
	}
	return early
}

func (a *AttendanceServiceImpl) publish(employeeID, event string, data interface{}) {
	if a.hub == nil {
		return
	}
	a.hub.Publish("employee:"+employeeID, realtime.Event{Event: event, Data: data})
}

// triggerRecompute runs the stats aggregator for the month the record falls
// in. The attendance write already happened; aggregation failures are logged
// and left for the nightly sweep rather than failing the caller.
func (a *AttendanceServiceImpl) triggerRecompute(ctx context.Context, employeeID, date string) {
	if a.recomputer == nil {
		return
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		slog.Error("failed to parse date for stats recompute", "date", date, "error", err)
		return
	}

	if _, err := a.recomputer.Recompute(ctx, employeeID, day.Year(), int(day.Month())); err != nil {
		slog.Error("stats recompute failed",
			"employee_id", employeeID,
			"year", day.Year(),
			"month", int(day.Month()),
			"error", err,
		)
	}
}

func toPlace(loc location.Location) geo.Place {
	return geo.Place{
		ID:           loc.ID,
		Name:         loc.Name,
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		RadiusMeters: loc.RadiusMeters,
	}
}

func mapToResponse(record attendance.Attendance) attendance.AttendanceResponse {
	var timeOut *string
	if record.TimeOut != nil {
		formatted := record.TimeOut.Format(time.RFC3339)
		timeOut = &formatted
	}

	return attendance.AttendanceResponse{
		ID:                     record.ID,
		EmployeeID:             record.EmployeeID,
		Date:                   record.Date,
		LocationID:             record.LocationID,
		ShiftName:              record.ShiftName,
		ShiftStart:             record.ShiftStart.String(),
		ShiftEnd:               record.ShiftEnd.String(),
		TimeIn:                 record.TimeIn.Format(time.RFC3339),
		TimeOut:                timeOut,
		CheckInDistanceMeters:  record.CheckInDistanceMeters,
		CheckOutDistanceMeters: record.CheckOutDistanceMeters,
		LateMinutes:            record.LateMinutes,
		EarlyMinutes:           record.EarlyMinutes,
		TotalBreakMinutes:      record.TotalBreakMinutes,
		OnBreak:                record.IsPaused(),
		WorkHours:              record.WorkHours,
		Status:                 record.Status,
		Note:                   record.Note,
	}
}
