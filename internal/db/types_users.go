package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role controls what a user may do through the API.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every role.
var Roles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// User is an account that can sign in to the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool      `json:"password_set" db:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Date is a custom type for handling SQL DATE (YYYY-MM-DD)
type Date struct {
	time.Time
}

// Scan implements the Scanner interface
func (d *Date) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return errors.New("failed to scan Date")
	}
	d.Time = t
	return nil
}

// Value implements the Valuer interface
func (d *Date) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return d.Time, nil
}

// String formats the date as YYYY-MM-DD.
func (d *Date) String() string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MarshalJSON implements json.Marshaler
func (d *Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		return nil
	}
	// Trim quotes
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	var err error
	d.Time, err = time.Parse("2006-01-02", str)
	return err
}
