package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/onboarding"
)

// EmployeeRequest creates or replaces an employee record.
type EmployeeRequest struct {
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	Position       string     `json:"position" validate:"required"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	ManagerID      *uuid.UUID `json:"manager_id,omitempty"`
	EmploymentType string     `json:"employment_type,omitempty" validate:"omitempty,oneof=full-time part-time contract intern"`
	Status         string     `json:"status,omitempty" validate:"omitempty,oneof=active on-leave terminated"`
	Salary         float64    `json:"salary" validate:"gte=0"`
	Currency       string     `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	StartDate      string     `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DepartmentRequest creates or replaces a department.
type DepartmentRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description string     `json:"description,omitempty"`
	ManagerID   *uuid.UUID `json:"manager_id,omitempty"`
}

// EducationRequest is a candidate's highest degree.
type EducationRequest struct {
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	Institution    string `json:"institution,omitempty"`
	GraduationYear int    `json:"graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
}

// CreateCandidateRequest registers an applicant. The CV score is computed by
// the server and cannot be supplied.
type CreateCandidateRequest struct {
	Name            string            `json:"name" validate:"required"`
	Email           string            `json:"email" validate:"required,email"`
	Phone           string            `json:"phone,omitempty"`
	ResumeText      string            `json:"resume_text,omitempty"`
	Position        string            `json:"position" validate:"required"`
	Department      string            `json:"department,omitempty"`
	YearsExperience int               `json:"years_experience" validate:"gte=0"`
	Skills          []string          `json:"skills,omitempty" validate:"dive,required"`
	Education       *EducationRequest `json:"education,omitempty"`
	Source          string            `json:"source,omitempty"`
	ExpectedSalary  float64           `json:"expected_salary,omitempty" validate:"gte=0"`
	Availability    string            `json:"availability,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	AssignedTo      *uuid.UUID        `json:"assigned_to,omitempty"`
}

// UpdateCandidateRequest edits a candidate. Absent fields are left alone.
type UpdateCandidateRequest struct {
	Name            *string           `json:"name,omitempty" validate:"omitempty,min=1"`
	Email           *string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string           `json:"phone,omitempty"`
	ResumeText      *string           `json:"resume_text,omitempty"`
	Position        *string           `json:"position,omitempty" validate:"omitempty,min=1"`
	Department      *string           `json:"department,omitempty"`
	YearsExperience *int              `json:"years_experience,omitempty" validate:"omitempty,gte=0"`
	Skills          []string          `json:"skills,omitempty" validate:"omitempty,dive,required"`
	Education       *EducationRequest `json:"education,omitempty"`
	Source          *string           `json:"source,omitempty"`
	ExpectedSalary  *float64          `json:"expected_salary,omitempty" validate:"omitempty,gte=0"`
	Availability    *string           `json:"availability,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	AssignedTo      *uuid.UUID        `json:"assigned_to,omitempty"`
}

// CandidateStatusRequest moves a candidate through the hiring pipeline.
type CandidateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=applied screening interview-scheduled interviewed shortlisted offered hired rejected withdrawn"`
}

// InterviewRequest records an interview with a candidate.
type InterviewRequest struct {
	Date          time.Time `json:"date" validate:"required"`
	InterviewerID uuid.UUID `json:"interviewer_id" validate:"required"`
	Type          string    `json:"type" validate:"required,oneof=phone video technical hr panel final"`
	Score         *int      `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled completed cancelled"`
}

// AttachmentRequest references an uploaded file.
type AttachmentRequest struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// CreateTaskRequest creates an onboarding task. New tasks always start pending.
type CreateTaskRequest struct {
	EmployeeID     uuid.UUID           `json:"employee_id" validate:"required"`
	Name           string              `json:"task_name" validate:"required,max=200"`
	Description    string              `json:"description,omitempty"`
	Priority       string              `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       string              `json:"category,omitempty" validate:"omitempty,oneof=documentation it-setup training orientation compliance benefits equipment access other"`
	DueDate        time.Time           `json:"due_date" validate:"required"`
	AssignedTo     uuid.UUID           `json:"assigned_to" validate:"required"`
	Dependencies   []uuid.UUID         `json:"dependencies,omitempty"`
	EstimatedHours float64             `json:"estimated_hours,omitempty" validate:"gte=0"`
	Attachments    []AttachmentRequest `json:"attachments,omitempty" validate:"dive"`
	Checklist      []string            `json:"checklist,omitempty" validate:"dive,required"`
}

// UpdateTaskRequest edits an onboarding task. Absent fields are left alone.
// Attachments and checklist entries are appended.
type UpdateTaskRequest struct {
	Name           *string             `json:"task_name,omitempty" validate:"omitempty,min=1,max=200"`
	Description    *string             `json:"description,omitempty"`
	Priority       *string             `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Category       *string             `json:"category,omitempty" validate:"omitempty,oneof=documentation it-setup training orientation compliance benefits equipment access other"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	AssignedTo     *uuid.UUID          `json:"assigned_to,omitempty"`
	Dependencies   []uuid.UUID         `json:"dependencies,omitempty"`
	EstimatedHours *float64            `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	ActualHours    *float64            `json:"actual_hours,omitempty" validate:"omitempty,gte=0"`
	Attachments    []AttachmentRequest `json:"attachments,omitempty" validate:"dive"`
	Checklist      []string            `json:"checklist,omitempty" validate:"dive,required"`
}

// TaskStatusRequest changes the status of an onboarding task.
type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed cancelled"`
}

// CommentRequest adds a comment to an onboarding task.
type CommentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ChecklistRequest marks a checklist item as done or not done.
type ChecklistRequest struct {
	Completed bool `json:"completed"`
}

// Dashboard is the summary shown on the HR landing page.
type Dashboard struct {
	Employees    int                   `json:"employees"`
	Departments  int                   `json:"departments"`
	Candidates   map[string]int        `json:"candidates"`
	Onboarding   onboarding.Statistics `json:"onboarding"`
	OverdueTasks int                   `json:"overdue_tasks"`
}
