package employee

import "context"

// EmployeeRepository is the Directory Service collaborator: read-only
// employee lookup.
type EmployeeRepository interface {
	// GetByID retrieves an employee by id
	GetByID(ctx context.Context, id string) (Employee, error)
}
