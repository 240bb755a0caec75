package leave

import "time"

type RequestStatus string

const (
	StatusWaitingApproval RequestStatus = "waiting_approval"
	StatusApproved        RequestStatus = "approved"
	StatusRejected        RequestStatus = "rejected"
	StatusCancelled       RequestStatus = "cancelled"
)

// Leave types that consume the paid annual/sick counters in monthly stats.
const (
	TypeAnnual = "annual"
	TypeSick   = "sick"
	TypeUnpaid = "unpaid"
	TypePermit = "permit"
)

// LeaveRequest is an approved-status record that excuses the dates it
// covers from lateness/error accounting.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	LeaveType  string
	StartDate  string // YYYY-MM-DD inclusive
	EndDate    string // YYYY-MM-DD inclusive
	Reason     string
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsPaidType reports whether the leave type increments the paid leave-day
// counter in monthly stats.
func (l LeaveRequest) IsPaidType() bool {
	return l.LeaveType == TypeAnnual || l.LeaveType == TypeSick
}

// Covers reports whether the request's date range includes the given
// YYYY-MM-DD date. Lexicographic comparison is correct for this format.
func (l LeaveRequest) Covers(date string) bool {
	return l.StartDate <= date && date <= l.EndDate
}

// Explanation is an approved excuse for a single date (forgot to check out,
// device trouble, off-site assignment). It excuses the date regardless of
// whether an attendance record exists for it.
type Explanation struct {
	ID         string
	EmployeeID string
	Date       string // YYYY-MM-DD
	Reason     string
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
