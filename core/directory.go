package core

import "context"

// employeeQuery selects the employee columns by exact username. Placeholder
// syntax differs per store, so each store formats its own parameter.
const employeeQuery = `SELECT employee_id, username, name, department, title, email FROM employees WHERE username = %s`

// Directory looks up employee profile rows. Implementations return
// ErrUnknownUser when no row matches.
type Directory interface {
	FindEmployee(ctx context.Context, username string) (EmployeeRecord, error)
}
