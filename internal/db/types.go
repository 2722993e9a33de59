package db

import (
	"time"

	"github.com/google/uuid"
)

// EmployeeStatus is an employee's standing with the company.
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "active"
	EmployeeOnLeave    EmployeeStatus = "on-leave"
	EmployeeTerminated EmployeeStatus = "terminated"
)

// Employment types accepted by the employees table.
const (
	EmploymentFullTime = "full-time"
	EmploymentPartTime = "part-time"
	EmploymentContract = "contract"
	EmploymentIntern   = "intern"
)

// Employee is a person on the payroll.
type Employee struct {
	ID             uuid.UUID      `json:"id"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	Position       string         `json:"position"`
	DepartmentID   *uuid.UUID     `json:"department_id,omitempty"`
	ManagerID      *uuid.UUID     `json:"manager_id,omitempty"`
	EmploymentType string         `json:"employment_type"`
	Status         EmployeeStatus `json:"status"`
	Salary         float64        `json:"salary"`
	Currency       string         `json:"currency"`
	StartDate      *Date          `json:"start_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EmployeeFilters holds optional filters for listing employees
type EmployeeFilters struct {
	DepartmentID *uuid.UUID
	Status       EmployeeStatus
	Search       string
	Limit        int
	Offset       int
}

// Department groups employees under a manager.
type Department struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	ManagerID     *uuid.UUID `json:"manager_id,omitempty"`
	EmployeeCount int        `json:"employee_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
