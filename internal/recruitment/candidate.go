// Package recruitment tracks job candidates through the hiring pipeline and
// keeps their CV score in step with what they applied with.
package recruitment

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/scoring"
)

// Status is where a candidate stands in the hiring pipeline.
type Status string

const (
	StatusApplied            Status = "applied"
	StatusScreening          Status = "screening"
	StatusInterviewScheduled Status = "interview-scheduled"
	StatusInterviewed        Status = "interviewed"
	StatusShortlisted        Status = "shortlisted"
	StatusOffered            Status = "offered"
	StatusHired              Status = "hired"
	StatusRejected           Status = "rejected"
	StatusWithdrawn          Status = "withdrawn"
)

// Statuses lists the pipeline stages in order.
var Statuses = []Status{
	StatusApplied, StatusScreening, StatusInterviewScheduled, StatusInterviewed,
	StatusShortlisted, StatusOffered, StatusHired, StatusRejected, StatusWithdrawn,
}

// Valid reports whether s is a known stage.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Education is the highest degree a candidate reports.
type Education struct {
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	Institution    string `json:"institution,omitempty"`
	GraduationYear int    `json:"graduation_year,omitempty"`
}

// Interview is one scheduled or held interview.
type Interview struct {
	Date          time.Time `json:"date"`
	InterviewerID uuid.UUID `json:"interviewer_id"`
	Type          string    `json:"type"`
	Score         *int      `json:"score,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
}

// Candidate is a job applicant. CVScore is derived and never set by callers.
type Candidate struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone,omitempty"`
	CVPath          string      `json:"cv_path,omitempty"`
	ResumeText      string      `json:"resume_text,omitempty"`
	Position        string      `json:"position"`
	Department      string      `json:"department"`
	YearsExperience int         `json:"years_experience"`
	Skills          []string    `json:"skills"`
	Education       Education   `json:"education"`
	Status          Status      `json:"status"`
	Interviews      []Interview `json:"interviews"`
	CVScore         int         `json:"cv_score"`
	Source          string      `json:"source,omitempty"`
	ExpectedSalary  float64     `json:"expected_salary,omitempty"`
	Availability    string      `json:"availability,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Tags            []string    `json:"tags"`
	AppliedAt       time.Time   `json:"applied_at"`
	LastContactAt   *time.Time  `json:"last_contact_at,omitempty"`
	AssignedTo      *uuid.UUID  `json:"assigned_to,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ScoringInput returns the fields the CV score is computed from.
func (c *Candidate) ScoringInput() scoring.Input {
	return scoring.Input{
		ResumeText:      c.ResumeText,
		Skills:          c.Skills,
		Position:        c.Position,
		YearsExperience: c.YearsExperience,
	}
}

// Sort orders for List.
const (
	SortApplied = "applied"
	SortScore   = "score"
)

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status     Status
	Department string
	Position   string
	MinScore   int
	Search     string
	Sort       string
	Limit      int
	Offset     int
}
