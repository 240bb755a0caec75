package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/presensia/presensia-backend-go/internal/domain/attendance"
	"github.com/presensia/presensia-backend-go/internal/domain/employee"
	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
	"github.com/presensia/presensia-backend-go/internal/domain/location"
	"github.com/presensia/presensia-backend-go/internal/domain/schedule"
	"github.com/presensia/presensia-backend-go/internal/domain/stats"
	"github.com/presensia/presensia-backend-go/internal/pkg/geo"
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Geofence rejection carries enough detail for the client to show how
	// far off the employee is.
	var fenceErr *geo.FenceError
	if errors.As(err, &fenceErr) {
		BadRequest(w, "Outside the allowed check-in area", map[string]string{
			"location":        fenceErr.LocationName,
			"distance_meters": fmt.Sprintf("%.0f", fenceErr.DistanceMeters),
			"radius_meters":   fmt.Sprintf("%d", fenceErr.RadiusMeters),
		})
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrSessionOpenToday):
		Conflict(w, "Finish today's open session before checking in again")
	case errors.Is(err, attendance.ErrNoOpenSession):
		NotFound(w, "No open attendance session")
	case errors.Is(err, attendance.ErrAlreadyPaused):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrNotPaused):
		Conflict(w, "No break in progress")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, location.ErrLocationNotFound):
		NotFound(w, "Location not found")

	// Kiosk pairing errors
	case errors.Is(err, kiosk.ErrSessionNotFound):
		NotFound(w, "Pairing session not found")
	case errors.Is(err, kiosk.ErrUnknownKiosk):
		NotFound(w, "Kiosk not registered")
	case errors.Is(err, kiosk.ErrTokenMismatch):
		Conflict(w, "QR code expired, scan again")
	case errors.Is(err, kiosk.ErrKioskBusy):
		Conflict(w, "Kiosk is serving another employee, try again shortly")

	// Stats errors
	case errors.Is(err, stats.ErrStatsNotFound):
		NotFound(w, "No stats for that month yet")

	// Configuration errors surface as server faults
	case errors.Is(err, schedule.ErrNoShiftsConfigured):
		InternalServerError(w, "No shifts configured")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
