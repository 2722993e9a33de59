package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const departmentSelect = `SELECT d.id, d.name, d.description, d.manager_id,
	(SELECT COUNT(*) FROM employees e WHERE e.department_id = d.id),
	d.created_at, d.updated_at
	FROM departments d`

func scanDepartment(row interface{ Scan(...any) error }) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.ManagerID, &d.EmployeeCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDepartment inserts d and fills in its ID and timestamps
func (db *DB) CreateDepartment(ctx context.Context, d *Department) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO departments (name, description, manager_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		d.Name, d.Description, d.ManagerID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return constraintError(err, "failed to create department")
	}
	return nil
}

// GetDepartment retrieves a department with its employee count
func (db *DB) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := scanDepartment(db.pool.QueryRow(ctx, departmentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get department")
	}
	return d, nil
}

// ListDepartments returns every department ordered by name
func (db *DB) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := db.pool.Query(ctx, departmentSelect+` ORDER BY d.name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list departments")
	}
	defer rows.Close()

	departments := []Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan department")
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

// UpdateDepartment replaces a department's editable fields
func (db *DB) UpdateDepartment(ctx context.Context, d *Department) error {
	err := db.pool.QueryRow(ctx,
		`UPDATE departments SET name = $1, description = $2, manager_id = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		d.Name, d.Description, d.ManagerID, d.ID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return errors.Wrapf(ErrNotFound, "department %s", d.ID)
		}
		return constraintError(err, "failed to update department")
	}
	return nil
}

// DeleteDepartment deletes a department. It fails with ErrConflict while
// employees still belong to it.
func (db *DB) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return constraintError(err, "failed to delete department")
	}
	return nil
}

// CountDepartments returns the number of departments
func (db *DB) CountDepartments(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departments`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count departments")
	}
	return n, nil
}
