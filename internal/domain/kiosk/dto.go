package kiosk

import (
	"github.com/presensia/presensia-backend-go/internal/pkg/validator"
)

// ========================================
// KIOSK PAIRING DTOs
// ========================================

// CreateSessionRequest is sent by the phone after scanning the kiosk QR.
type CreateSessionRequest struct {
	KioskID    string  `json:"kiosk_id"`
	Token      string  `json:"token"`
	EmployeeID string  `json:"employee_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (r *CreateSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.KioskID) {
		errs = append(errs, validator.ValidationError{
			Field:   "kiosk_id",
			Message: "kiosk_id is required",
		})
	}

	if validator.IsEmpty(r.Token) {
		errs = append(errs, validator.ValidationError{
			Field:   "token",
			Message: "token is required",
		})
	}

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

type SessionResponse struct {
	ID           string  `json:"id"`
	KioskID      string  `json:"kiosk_id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	CenterID     string  `json:"center_id"`
	Status       string  `json:"status"`
	Error        *string `json:"error,omitempty"`
	PhotoURL     *string `json:"photo_url,omitempty"`
	CreatedAt    string  `json:"created_at"` // ISO-8601
}
