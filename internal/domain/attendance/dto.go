package attendance

import (
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	EmployeeID string  `json:"employee_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DeviceID   *string `json:"device_id,omitempty"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	EmployeeID string   `json:"employee_id"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be supplied together",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceResponse struct {
	ID                     string   `json:"id"`
	EmployeeID             string   `json:"employee_id"`
	Date                   string   `json:"date"`
	LocationID             string   `json:"location_id"`
	ShiftName              string   `json:"shift_name"`
	ShiftStart             string   `json:"shift_start"`
	ShiftEnd               string   `json:"shift_end"`
	TimeIn                 string   `json:"time_in"`
	TimeOut                *string  `json:"time_out,omitempty"`
	CheckInDistanceMeters  float64  `json:"check_in_distance_meters"`
	CheckOutDistanceMeters *float64 `json:"check_out_distance_meters,omitempty"`
	LateMinutes            int      `json:"late_minutes"`
	EarlyMinutes           *int     `json:"early_minutes,omitempty"`
	TotalBreakMinutes      int      `json:"total_break_minutes"`
	OnBreak                bool     `json:"on_break"`
	WorkHours              *float64 `json:"work_hours,omitempty"`
	Status                 string   `json:"status"`
	Note                   *string  `json:"note,omitempty"`
}

// HistoryFilter filters an employee's own attendance history.
type HistoryFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.StartDate != nil && !validator.IsEmpty(*f.StartDate) {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && !validator.IsEmpty(*f.EndDate) {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// SessionStatusResponse mirrors what a check-in screen needs to decide which
// buttons to enable.
type SessionStatusResponse struct {
	HasOpenSession bool                `json:"has_open_session"`
	OnBreak        bool                `json:"on_break"`
	CanCheckIn     bool                `json:"can_check_in"`
	CanCheckOut    bool                `json:"can_check_out"`
	OpenSession    *AttendanceResponse `json:"open_session,omitempty"`
}
