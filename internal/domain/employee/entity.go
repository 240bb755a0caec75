package employee

import (
	"time"
)

// PermittedLocationWildcard in an employee's allow-list grants every
// configured location.
const PermittedLocationWildcard = "ALL"

// Employee is directory data owned by the profile/admin collaborators.
// The engine reads it and never mutates it.
type Employee struct {
	ID                   string
	FullName             string
	Role                 string
	HomeLocationID       string
	PermittedLocationIDs []string
	AnnualLeaveBalance   float64
	PairedDeviceID       *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasLocationWildcard reports whether the allow-list grants all locations.
func (e Employee) HasLocationWildcard() bool {
	for _, id := range e.PermittedLocationIDs {
		if id == PermittedLocationWildcard {
			return true
		}
	}
	return false
}
