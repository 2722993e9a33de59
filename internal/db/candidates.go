package db

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/recruitment"
)

const candidateColumns = `id, name, email, phone, cv_path, resume_text, position, department,
	years_experience, skills, education, status, interviews, cv_score, source,
	expected_salary::float8, availability, notes, tags, applied_at, last_contact_at,
	assigned_to, created_at, updated_at`

func scanCandidate(row interface{ Scan(...any) error }) (*recruitment.Candidate, error) {
	var c recruitment.Candidate
	var skills, education, interviews, tags []byte
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CVPath, &c.ResumeText, &c.Position,
		&c.Department, &c.YearsExperience, &skills, &education, &c.Status, &interviews, &c.CVScore,
		&c.Source, &c.ExpectedSalary, &c.Availability, &c.Notes, &tags, &c.AppliedAt,
		&c.LastContactAt, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Skills, c.Tags, c.Interviews = []string{}, []string{}, []recruitment.Interview{}
	for _, f := range []struct {
		src []byte
		dst any
	}{
		{skills, &c.Skills},
		{education, &c.Education},
		{interviews, &c.Interviews},
		{tags, &c.Tags},
	} {
		if err := unjsonb(f.src, f.dst); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// candidateDocs marshals the JSONB columns of c in column order.
func candidateDocs(c *recruitment.Candidate) (skills, education, interviews, tags []byte, err error) {
	if skills, err = jsonb(c.Skills, "[]"); err != nil {
		return
	}
	if education, err = jsonb(c.Education, "{}"); err != nil {
		return
	}
	if interviews, err = jsonb(c.Interviews, "[]"); err != nil {
		return
	}
	tags, err = jsonb(c.Tags, "[]")
	return
}

// CreateCandidate inserts c. The ID is generated here when unset.
func (db *DB) CreateCandidate(ctx context.Context, c *recruitment.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	skills, education, interviews, tags, err := candidateDocs(c)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, email, phone, cv_path, resume_text, position, department,
		                         years_experience, skills, education, status, interviews, cv_score,
		                         source, expected_salary, availability, notes, tags, applied_at,
		                         last_contact_at, assigned_to, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		         $19, $20, $21, $22, $23, $24)`,
		c.ID, c.Name, c.Email, c.Phone, c.CVPath, c.ResumeText, c.Position, c.Department,
		c.YearsExperience, skills, education, c.Status, interviews, c.CVScore,
		c.Source, c.ExpectedSalary, c.Availability, c.Notes, tags, c.AppliedAt,
		c.LastContactAt, c.AssignedTo, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return constraintError(err, "failed to create candidate")
	}
	return nil
}

// GetCandidate retrieves a candidate by ID
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*recruitment.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get candidate")
	}
	return c, nil
}

// UpdateCandidate overwrites the stored candidate with c
func (db *DB) UpdateCandidate(ctx context.Context, c *recruitment.Candidate) error {
	skills, education, interviews, tags, err := candidateDocs(c)
	if err != nil {
		return err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET name = $2, email = $3, phone = $4, cv_path = $5, resume_text = $6,
		        position = $7, department = $8, years_experience = $9, skills = $10, education = $11,
		        status = $12, interviews = $13, cv_score = $14, source = $15, expected_salary = $16,
		        availability = $17, notes = $18, tags = $19, last_contact_at = $20,
		        assigned_to = $21, updated_at = $22
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.CVPath, c.ResumeText,
		c.Position, c.Department, c.YearsExperience, skills, education,
		c.Status, interviews, c.CVScore, c.Source, c.ExpectedSalary,
		c.Availability, c.Notes, tags, c.LastContactAt,
		c.AssignedTo, c.UpdatedAt,
	)
	if err != nil {
		return constraintError(err, "failed to update candidate")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "candidate %s", c.ID)
	}
	return nil
}

// DeleteCandidate deletes a candidate
func (db *DB) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "failed to delete candidate")
	}
	return nil
}

// ListCandidates retrieves candidates with optional filters
func (db *DB) ListCandidates(ctx context.Context, f recruitment.ListFilter) ([]recruitment.Candidate, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE 1=1`
	args := []any{}
	argNum := 1

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, f.Status)
		argNum++
	}
	if f.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", argNum)
		args = append(args, f.Department)
		argNum++
	}
	if f.Position != "" {
		query += fmt.Sprintf(" AND position ILIKE $%d", argNum)
		args = append(args, "%"+f.Position+"%")
		argNum++
	}
	if f.MinScore > 0 {
		query += fmt.Sprintf(" AND cv_score >= $%d", argNum)
		args = append(args, f.MinScore)
		argNum++
	}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR skills::text ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+f.Search+"%")
		argNum++
	}

	switch f.Sort {
	case recruitment.SortScore:
		query += " ORDER BY cv_score DESC, applied_at DESC"
	default:
		query += " ORDER BY applied_at DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidates")
	}
	defer rows.Close()

	candidates := []recruitment.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan candidate")
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

// CandidateEmailExists reports whether another candidate already uses email
func (db *DB) CandidateEmailExists(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidates WHERE email = $1 AND id <> $2)`,
		normalizeEmail(email), exclude,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check candidate email")
	}
	return exists, nil
}

// CountCandidatesByStatus returns how many candidates sit in each stage
func (db *DB) CountCandidatesByStatus(ctx context.Context) (map[recruitment.Status]int, error) {
	rows, err := db.pool.Query(ctx, `SELECT status, COUNT(*) FROM candidates GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count candidates")
	}
	defer rows.Close()

	counts := make(map[recruitment.Status]int)
	for rows.Next() {
		var status recruitment.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan candidate count")
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
