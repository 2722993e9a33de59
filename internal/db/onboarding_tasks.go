package db

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hr-admin/internal/onboarding"
)

const taskColumns = `id, employee_id, task_name, description, status, priority, category, due_date,
	completed_date, assigned_to, dependencies, attachments, comments, estimated_hours,
	actual_hours, checklist, email_sent, reminder_sent, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*onboarding.Task, error) {
	var t onboarding.Task
	var deps, attachments, comments, checklist []byte
	err := row.Scan(&t.ID, &t.EmployeeID, &t.Name, &t.Description, &t.Status, &t.Priority,
		&t.Category, &t.DueDate, &t.CompletedAt, &t.AssignedTo, &deps, &attachments, &comments,
		&t.EstimatedHours, &t.ActualHours, &checklist, &t.EmailSent, &t.ReminderSent,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Dependencies = []uuid.UUID{}
	t.Attachments = []onboarding.Attachment{}
	t.Comments = []onboarding.Comment{}
	t.Checklist = []onboarding.ChecklistItem{}
	for _, f := range []struct {
		src []byte
		dst any
	}{
		{deps, &t.Dependencies},
		{attachments, &t.Attachments},
		{comments, &t.Comments},
		{checklist, &t.Checklist},
	} {
		if err := unjsonb(f.src, f.dst); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// taskDocs marshals the JSONB columns of t in column order.
func taskDocs(t *onboarding.Task) (deps, attachments, comments, checklist []byte, err error) {
	if deps, err = jsonb(t.Dependencies, "[]"); err != nil {
		return
	}
	if attachments, err = jsonb(t.Attachments, "[]"); err != nil {
		return
	}
	if comments, err = jsonb(t.Comments, "[]"); err != nil {
		return
	}
	checklist, err = jsonb(t.Checklist, "[]")
	return
}

// CreateTask inserts an onboarding task
func (db *DB) CreateTask(ctx context.Context, t *onboarding.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	deps, attachments, comments, checklist, err := taskDocs(t)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO onboarding_tasks (id, employee_id, task_name, description, status, priority,
		                               category, due_date, completed_date, assigned_to, dependencies,
		                               attachments, comments, estimated_hours, actual_hours, checklist,
		                               email_sent, reminder_sent, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		         $19, $20, $21)`,
		t.ID, t.EmployeeID, t.Name, t.Description, t.Status, t.Priority,
		t.Category, t.DueDate, t.CompletedAt, t.AssignedTo, deps,
		attachments, comments, t.EstimatedHours, t.ActualHours, checklist,
		t.EmailSent, t.ReminderSent, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return constraintError(err, "failed to create onboarding task")
	}
	return nil
}

// GetTask retrieves an onboarding task by ID
func (db *DB) GetTask(ctx context.Context, id uuid.UUID) (*onboarding.Task, error) {
	t, err := scanTask(db.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM onboarding_tasks WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get onboarding task")
	}
	return t, nil
}

// GetTasks retrieves the tasks among ids that exist
func (db *DB) GetTasks(ctx context.Context, ids []uuid.UUID) ([]onboarding.Task, error) {
	if len(ids) == 0 {
		return []onboarding.Task{}, nil
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM onboarding_tasks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get onboarding tasks")
	}
	return collectTasks(rows)
}

// UpdateTask overwrites the stored task with t
func (db *DB) UpdateTask(ctx context.Context, t *onboarding.Task) error {
	deps, attachments, comments, checklist, err := taskDocs(t)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE onboarding_tasks SET task_name = $2, description = $3, status = $4, priority = $5,
		        category = $6, due_date = $7, completed_date = $8, assigned_to = $9,
		        dependencies = $10, attachments = $11, comments = $12, estimated_hours = $13,
		        actual_hours = $14, checklist = $15, email_sent = $16, reminder_sent = $17,
		        updated_at = $18
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Status, t.Priority,
		t.Category, t.DueDate, t.CompletedAt, t.AssignedTo,
		deps, attachments, comments, t.EstimatedHours,
		t.ActualHours, checklist, t.EmailSent, t.ReminderSent,
		t.UpdatedAt,
	)
	if err != nil {
		return constraintError(err, "failed to update onboarding task")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "onboarding task %s", t.ID)
	}
	return nil
}

// DeleteTask deletes an onboarding task
func (db *DB) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM onboarding_tasks WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete onboarding task")
	}
	return nil
}

// ListTasks retrieves tasks matching q ordered by due date
func (db *DB) ListTasks(ctx context.Context, q onboarding.Query) ([]onboarding.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM onboarding_tasks WHERE 1=1`
	args := []any{}
	argNum := 1

	if q.EmployeeID != nil {
		query += fmt.Sprintf(" AND employee_id = $%d", argNum)
		args = append(args, *q.EmployeeID)
		argNum++
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argNum)
		args = append(args, statuses)
		argNum++
	}
	if q.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, q.Category)
		argNum++
	}
	if q.DueBefore != nil {
		query += fmt.Sprintf(" AND due_date < $%d", argNum)
		args = append(args, *q.DueBefore)
	}
	query += " ORDER BY due_date ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list onboarding tasks")
	}
	return collectTasks(rows)
}

// CountTasksByStatus counts tasks per status, optionally for one employee
func (db *DB) CountTasksByStatus(ctx context.Context, employeeID *uuid.UUID) (map[onboarding.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM onboarding_tasks`
	args := []any{}
	if employeeID != nil {
		query += ` WHERE employee_id = $1`
		args = append(args, *employeeID)
	}
	query += ` GROUP BY status`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count onboarding tasks")
	}
	defer rows.Close()

	counts := make(map[onboarding.Status]int)
	for rows.Next() {
		var status onboarding.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan task count")
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func collectTasks(rows pgx.Rows) ([]onboarding.Task, error) {
	defer rows.Close()
	tasks := []onboarding.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan onboarding task")
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
