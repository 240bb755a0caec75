package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/presensia/presensia-backend-go/internal/domain/leave"
	"github.com/presensia/presensia-backend-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// ListApprovedOverlappingMonth implements leave.LeaveRequestRepository.
func (l *leaveRequestRepositoryImpl) ListApprovedOverlappingMonth(ctx context.Context, employeeID string, year int, month int) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	monthStart := fmt.Sprintf("%04d-%02d-01", year, month)
	monthEnd := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Format("2006-01-02")

	query := `
		SELECT id, employee_id, leave_type, start_date, end_date, reason, status,
			   created_at, updated_at
		FROM leave_requests
		WHERE employee_id = $1
		  AND status = $2
		  AND start_date <= $3
		  AND end_date >= $4
		ORDER BY start_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, leave.StatusApproved, monthEnd, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var req leave.LeaveRequest
		if err := rows.Scan(
			&req.ID, &req.EmployeeID, &req.LeaveType, &req.StartDate, &req.EndDate,
			&req.Reason, &req.Status, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}

	return requests, nil
}

type explanationRepositoryImpl struct {
	db *database.DB
}

func NewExplanationRepository(db *database.DB) leave.ExplanationRepository {
	return &explanationRepositoryImpl{db: db}
}

// ListApprovedByMonth implements leave.ExplanationRepository.
func (e *explanationRepositoryImpl) ListApprovedByMonth(ctx context.Context, employeeID string, year int, month int) ([]leave.Explanation, error) {
	q := GetQuerier(ctx, e.db)

	monthStart := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Format("2006-01-02")

	query := `
		SELECT id, employee_id, date, reason, status, created_at, updated_at
		FROM explanations
		WHERE employee_id = $1
		  AND status = $2
		  AND date >= $3
		  AND date < $4
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, leave.StatusApproved, monthStart, nextMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved explanations: %w", err)
	}
	defer rows.Close()

	var explanations []leave.Explanation
	for rows.Next() {
		var ex leave.Explanation
		if err := rows.Scan(
			&ex.ID, &ex.EmployeeID, &ex.Date, &ex.Reason, &ex.Status,
			&ex.CreatedAt, &ex.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan explanation: %w", err)
		}
		explanations = append(explanations, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate explanations: %w", err)
	}

	return explanations, nil
}
