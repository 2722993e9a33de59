// Package notify delivers onboarding task events to people: a log line, an
// email, or an SMS.
package notify

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind identifies what happened to a task.
type Kind string

const (
	KindTaskCreated   Kind = "task_created"
	KindStatusChanged Kind = "task_status_changed"
	KindReminder      Kind = "task_reminder"
)

// Event is the payload handed to every Notifier.
type Event struct {
	Kind       Kind      `json:"kind"`
	TaskID     uuid.UUID `json:"task_id"`
	TaskName   string    `json:"task_name"`
	EmployeeID uuid.UUID `json:"employee_id"`
	AssigneeID uuid.UUID `json:"assignee_id"`
	DueDate    time.Time `json:"due_date"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status"`
	Priority   string    `json:"priority"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers an Event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// LogNotifier writes events to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: l.Named("notify")}
}

// Notify logs the event at info level.
func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.logger.Info("onboarding task notification",
		zap.String("kind", string(ev.Kind)),
		zap.Stringer("task_id", ev.TaskID),
		zap.String("task_name", ev.TaskName),
		zap.Stringer("employee_id", ev.EmployeeID),
		zap.Stringer("assignee_id", ev.AssigneeID),
		zap.Time("due_date", ev.DueDate),
		zap.String("old_status", ev.OldStatus),
		zap.String("new_status", ev.NewStatus),
	)
	return nil
}

// Multi fans an event out to every notifier and combines their errors. A
// failing notifier does not stop the others.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var combined error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			combined = errors.CombineErrors(combined, err)
		}
	}
	return combined
}
