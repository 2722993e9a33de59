package db

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/notify"
)

const userColumns = `id, name, email, phone, role, password_hash, password_set, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash, &u.PasswordSet, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user without a password and returns its ID. Emails
// are stored lowercased.
func (db *DB) CreateUser(ctx context.Context, name, email, phone string, role Role) (uuid.UUID, error) {
	if role == "" {
		role = RoleEmployee
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		name, normalizeEmail(email), phone, role,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, constraintError(err, "failed to create user")
	}
	return id, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user by email")
	}
	return u, nil
}

// ListUsers returns every user ordered by name
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's profile fields
func (db *DB) UpdateUser(ctx context.Context, u *User) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET name = $1, email = $2, phone = $3, updated_at = NOW() WHERE id = $4`,
		u.Name, normalizeEmail(u.Email), u.Phone, u.ID,
	)
	if err != nil {
		return constraintError(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", u.ID)
	}
	return nil
}

// SetUserRole changes what a user is allowed to do
func (db *DB) SetUserRole(ctx context.Context, id uuid.UUID, role Role) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return errors.Wrap(err, "failed to set user role")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

// DeleteUser deletes a user
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return constraintError(err, "failed to delete user")
	}
	return nil
}

// UpdatePassword stores a new password hash and marks the password as set
func (db *DB) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", userID)
	}
	return nil
}

// CheckEmailExists reports whether a user already uses email
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, normalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return exists, nil
}

// Contact resolves a user to notification details.
func (db *DB) Contact(ctx context.Context, userID uuid.UUID) (*notify.Contact, error) {
	u, err := db.GetUser(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	return &notify.Contact{Name: u.Name, Email: u.Email, Phone: u.Phone}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
