package leave

import "context"

// LeaveRequestRepository provides approved leave lookups for the stats
// aggregator. Request CRUD belongs to the admin collaborators.
type LeaveRequestRepository interface {
	// ListApprovedOverlappingMonth returns approved requests whose date
	// range overlaps the given month
	ListApprovedOverlappingMonth(ctx context.Context, employeeID string, year int, month int) ([]LeaveRequest, error)
}

// ExplanationRepository provides approved explanation lookups.
type ExplanationRepository interface {
	// ListApprovedByMonth returns approved explanations dated inside the
	// given month
	ListApprovedByMonth(ctx context.Context, employeeID string, year int, month int) ([]Explanation, error)
}
