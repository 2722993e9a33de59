package db

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const employeeColumns = `id, user_id, name, email, phone, address, position, department_id, manager_id,
	employment_type, status, salary::float8, currency, start_date, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.Phone, &e.Address, &e.Position,
		&e.DepartmentID, &e.ManagerID, &e.EmploymentType, &e.Status, &e.Salary, &e.Currency,
		&e.StartDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEmployee inserts e and fills in its ID and timestamps
func (db *DB) CreateEmployee(ctx context.Context, e *Employee) error {
	if e.Status == "" {
		e.Status = EmployeeActive
	}
	if e.EmploymentType == "" {
		e.EmploymentType = EmploymentFullTime
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO employees (user_id, name, email, phone, address, position, department_id,
		                        manager_id, employment_type, status, salary, currency, start_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		e.UserID, e.Name, normalizeEmail(e.Email), e.Phone, e.Address, e.Position, e.DepartmentID,
		e.ManagerID, e.EmploymentType, e.Status, e.Salary, e.Currency, e.StartDate,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return constraintError(err, "failed to create employee")
	}
	e.Email = normalizeEmail(e.Email)
	return nil
}

// GetEmployee retrieves an employee by ID
func (db *DB) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	e, err := scanEmployee(db.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get employee")
	}
	return e, nil
}

// EmployeeExists reports whether an employee with id exists
func (db *DB) EmployeeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check employee")
	}
	return exists, nil
}

// ListEmployees retrieves employees with optional filters
func (db *DB) ListEmployees(ctx context.Context, filters EmployeeFilters) ([]Employee, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.DepartmentID != nil {
		query += fmt.Sprintf(" AND department_id = $%d", argNum)
		args = append(args, *filters.DepartmentID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR position ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list employees")
	}
	defer rows.Close()

	employees := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan employee")
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// UpdateEmployee replaces an employee's editable fields
func (db *DB) UpdateEmployee(ctx context.Context, e *Employee) error {
	err := db.pool.QueryRow(ctx,
		`UPDATE employees SET user_id = $1, name = $2, email = $3, phone = $4, address = $5,
		        position = $6, department_id = $7, manager_id = $8, employment_type = $9,
		        status = $10, salary = $11, currency = $12, start_date = $13, updated_at = NOW()
		 WHERE id = $14
		 RETURNING updated_at`,
		e.UserID, e.Name, normalizeEmail(e.Email), e.Phone, e.Address, e.Position, e.DepartmentID,
		e.ManagerID, e.EmploymentType, e.Status, e.Salary, e.Currency, e.StartDate, e.ID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return errors.Wrapf(ErrNotFound, "employee %s", e.ID)
		}
		return constraintError(err, "failed to update employee")
	}
	return nil
}

// DeleteEmployee deletes an employee and, by cascade, their onboarding tasks
func (db *DB) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return constraintError(err, "failed to delete employee")
	}
	return nil
}

// CountEmployees returns how many employees are not terminated
func (db *DB) CountEmployees(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE status <> $1`, EmployeeTerminated).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count employees")
	}
	return n, nil
}
