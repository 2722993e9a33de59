// Package onboarding implements the onboarding task lifecycle: status
// changes with an audit trail, dependency checks, overdue detection and the
// per-employee queries behind the dashboards.
package onboarding

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Priority of a task. Urgent tasks are also announced by SMS.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Category groups tasks on the onboarding board.
type Category string

const (
	CategoryDocumentation Category = "documentation"
	CategoryITSetup       Category = "it-setup"
	CategoryTraining      Category = "training"
	CategoryOrientation   Category = "orientation"
	CategoryCompliance    Category = "compliance"
	CategoryBenefits      Category = "benefits"
	CategoryEquipment     Category = "equipment"
	CategoryAccess        Category = "access"
	CategoryOther         Category = "other"
)

// Comment is one entry of a task's audit trail.
type Comment struct {
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ChecklistItem is a sub-step of a task that is completed independently.
type ChecklistItem struct {
	Item        string     `json:"item"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy *uuid.UUID `json:"completed_by,omitempty"`
}

// Attachment references a file stored outside the task record.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Task is an onboarding task assigned to someone on behalf of an employee.
type Task struct {
	ID             uuid.UUID       `json:"id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	Name           string          `json:"task_name"`
	Description    string          `json:"description,omitempty"`
	Status         Status          `json:"status"`
	Priority       Priority        `json:"priority"`
	Category       Category        `json:"category"`
	DueDate        time.Time       `json:"due_date"`
	CompletedAt    *time.Time      `json:"completed_date,omitempty"`
	AssignedTo     uuid.UUID       `json:"assigned_to"`
	Dependencies   []uuid.UUID     `json:"dependencies"`
	Attachments    []Attachment    `json:"attachments"`
	Comments       []Comment       `json:"comments"`
	EstimatedHours float64         `json:"estimated_hours,omitempty"`
	ActualHours    float64         `json:"actual_hours,omitempty"`
	Checklist      []ChecklistItem `json:"checklist"`
	EmailSent      bool            `json:"email_sent"`
	ReminderSent   bool            `json:"reminder_sent"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the task is not completed and its due date has passed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(now)
}

// DaysUntilDue is the number of whole days left until the due date, rounded
// up. It is 0 for completed tasks and negative once the task is late.
func (t *Task) DaysUntilDue(now time.Time) int {
	if t.Status == StatusCompleted {
		return 0
	}
	return int(math.Ceil(t.DueDate.Sub(now).Hours() / 24))
}

// View is a task plus the values derived from it at a point in time.
type View struct {
	Task
	IsOverdue       bool  `json:"is_overdue"`
	DaysUntilDue    int   `json:"days_until_due"`
	DependenciesMet *bool `json:"dependencies_met,omitempty"`
}

// View snapshots the derived fields as of now.
func (t *Task) View(now time.Time) View {
	return View{
		Task:         *t,
		IsOverdue:    t.IsOverdue(now),
		DaysUntilDue: t.DaysUntilDue(now),
	}
}

// Filter narrows TasksByEmployee. Zero values match everything.
type Filter struct {
	Status   Status
	Category Category
}

// Statistics counts tasks per status.
type Statistics struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}
