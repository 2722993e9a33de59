package onboarding

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/metrics"
	"github.com/jonathan/hr-admin/internal/notify"
)

var (
	// ErrNotFound is returned when a task ID does not resolve.
	ErrNotFound = errors.New("onboarding task not found")
	// ErrChecklistItemNotFound is returned for an out-of-range checklist index.
	ErrChecklistItemNotFound = errors.New("checklist item not found")
)

// Query selects tasks from a Store. Zero values match everything.
type Query struct {
	EmployeeID *uuid.UUID
	Statuses   []Status
	Category   Category
	DueBefore  *time.Time
}

// Store persists tasks. Get methods return (nil, nil) when nothing matches.
// Writes replace the whole record; concurrent writers are last-write-wins.
type Store interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	GetTasks(ctx context.Context, ids []uuid.UUID) ([]Task, error)
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, q Query) ([]Task, error)
	CountTasksByStatus(ctx context.Context, employeeID *uuid.UUID) (map[Status]int, error)
}

// Service applies lifecycle rules on top of a Store.
type Service struct {
	store    Store
	notifier notify.Notifier
	policy   TransitionPolicy
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where task events are sent.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPolicy replaces the default AllowAll transition policy.
func WithPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l.Named("onboarding") }
}

// NewService returns a Service that accepts every transition and sends no
// notifications unless options say otherwise.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: AllowAll{},
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create stores a new pending task and announces it. EmailSent is recorded
// once the announcement has been delivered.
func (s *Service) Create(ctx context.Context, t *Task) (*Task, error) {
	now := s.now()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Status = StatusPending
	t.CompletedAt = nil
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = CategoryOther
	}
	if t.Dependencies == nil {
		t.Dependencies = []uuid.UUID{}
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
	if t.Checklist == nil {
		t.Checklist = []ChecklistItem{}
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, errors.Wrap(err, "create onboarding task")
	}

	if s.emit(ctx, notify.KindTaskCreated, t, "") {
		t.EmailSent = true
		if err := s.store.UpdateTask(ctx, t); err != nil {
			s.logger.Warn("failed to record task notification",
				zap.Stringer(logger.FieldTaskID, t.ID), zap.Error(err))
		}
	}
	return t, nil
}

// Get loads one task.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get task %s", id)
	}
	if t == nil {
		return nil, errors.Wrapf(ErrNotFound, "task %s", id)
	}
	return t, nil
}

// UpdateStatus moves a task to newStatus. Entering completed stamps
// CompletedAt the first time only. When actorID is set, an audit comment is
// appended on the actor's behalf.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status, actorID *uuid.UUID) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old := t.Status
	if !s.policy.Allowed(old, newStatus) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", old, newStatus)
	}

	now := s.now()
	t.Status = newStatus
	if newStatus == StatusCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if actorID != nil {
		t.Comments = append(t.Comments, Comment{
			UserID:    *actorID,
			Text:      fmt.Sprintf("Status changed from %s to %s", old, newStatus),
			CreatedAt: now,
		})
	}
	t.UpdatedAt = now

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "update status of task %s", id)
	}
	metrics.OnboardingTransitions.WithLabelValues(string(old), string(newStatus)).Inc()

	s.emit(ctx, notify.KindStatusChanged, t, old)
	return t, nil
}

// AddComment appends a comment authored by userID.
func (s *Service) AddComment(ctx context.Context, id, userID uuid.UUID, text string) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t.Comments = append(t.Comments, Comment{UserID: userID, Text: text, CreatedAt: now})
	t.UpdatedAt = now

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "add comment to task %s", id)
	}
	return t, nil
}

// ToggleChecklistItem marks checklist item index as done or not done.
func (s *Service) ToggleChecklistItem(ctx context.Context, id uuid.UUID, index int, completed bool, userID uuid.UUID) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.Checklist) {
		return nil, errors.Wrapf(ErrChecklistItemNotFound, "task %s item %d", id, index)
	}

	now := s.now()
	item := &t.Checklist[index]
	item.Completed = completed
	if completed {
		item.CompletedAt = &now
		item.CompletedBy = &userID
	} else {
		item.CompletedAt = nil
		item.CompletedBy = nil
	}
	t.UpdatedAt = now

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "update checklist of task %s", id)
	}
	return t, nil
}

// Patch holds editable task fields. Nil fields are left unchanged. Status
// is not part of it; use UpdateStatus.
type Patch struct {
	Name           *string
	Description    *string
	Priority       *Priority
	Category       *Category
	DueDate        *time.Time
	AssignedTo     *uuid.UUID
	Dependencies   []uuid.UUID
	EstimatedHours *float64
	ActualHours    *float64
	Attachments    []Attachment
	Checklist      []string
}

// Update applies p to a task.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
		// a new due date deserves a new reminder
		t.ReminderSent = false
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Dependencies != nil {
		t.Dependencies = p.Dependencies
	}
	if p.EstimatedHours != nil {
		t.EstimatedHours = *p.EstimatedHours
	}
	if p.ActualHours != nil {
		t.ActualHours = *p.ActualHours
	}
	now := s.now()
	for _, a := range p.Attachments {
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		t.Attachments = append(t.Attachments, a)
	}
	for _, item := range p.Checklist {
		t.Checklist = append(t.Checklist, ChecklistItem{Item: item})
	}
	t.UpdatedAt = now

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, errors.Wrapf(err, "update task %s", id)
	}
	return t, nil
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return errors.Wrapf(err, "delete task %s", id)
	}
	return nil
}

// CheckDependencies reports whether every task t depends on is completed. A
// task without dependencies is always workable. Dependencies that no longer
// exist are ignored. The result never blocks a status change.
func (s *Service) CheckDependencies(ctx context.Context, t *Task) (bool, error) {
	if len(t.Dependencies) == 0 {
		return true, nil
	}
	deps, err := s.store.GetTasks(ctx, t.Dependencies)
	if err != nil {
		return false, errors.Wrapf(err, "load dependencies of task %s", t.ID)
	}
	for _, d := range deps {
		if d.Status != StatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

// OverdueTasks returns pending and in-progress tasks whose due date has passed.
func (s *Service) OverdueTasks(ctx context.Context) ([]Task, error) {
	now := s.now()
	tasks, err := s.store.ListTasks(ctx, Query{
		Statuses:  []Status{StatusPending, StatusInProgress},
		DueBefore: &now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list overdue tasks")
	}
	sortByDueDate(tasks)
	return tasks, nil
}

// TasksByEmployee returns an employee's tasks, earliest due date first.
func (s *Service) TasksByEmployee(ctx context.Context, employeeID uuid.UUID, f Filter) ([]Task, error) {
	q := Query{EmployeeID: &employeeID, Category: f.Category}
	if f.Status != "" {
		q.Statuses = []Status{f.Status}
	}
	tasks, err := s.store.ListTasks(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "list tasks of employee %s", employeeID)
	}
	sortByDueDate(tasks)
	return tasks, nil
}

// Statistics counts tasks per status, for one employee or for everyone.
func (s *Service) Statistics(ctx context.Context, employeeID *uuid.UUID) (Statistics, error) {
	counts, err := s.store.CountTasksByStatus(ctx, employeeID)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "count tasks by status")
	}
	st := Statistics{
		Pending:    counts[StatusPending],
		InProgress: counts[StatusInProgress],
		Completed:  counts[StatusCompleted],
		Cancelled:  counts[StatusCancelled],
	}
	st.Total = st.Pending + st.InProgress + st.Completed + st.Cancelled
	return st, nil
}

// SendReminders notifies assignees of open tasks due within the given window
// that have not been reminded yet, and returns how many were sent.
func (s *Service) SendReminders(ctx context.Context, within time.Duration) (int, error) {
	cutoff := s.now().Add(within)
	tasks, err := s.store.ListTasks(ctx, Query{
		Statuses:  []Status{StatusPending, StatusInProgress},
		DueBefore: &cutoff,
	})
	if err != nil {
		return 0, errors.Wrap(err, "list tasks due for reminder")
	}

	sent := 0
	for i := range tasks {
		t := &tasks[i]
		if t.ReminderSent {
			continue
		}
		if !s.emit(ctx, notify.KindReminder, t, "") {
			continue
		}
		t.ReminderSent = true
		if err := s.store.UpdateTask(ctx, t); err != nil {
			return sent, errors.Wrapf(err, "mark reminder sent for task %s", t.ID)
		}
		sent++
	}
	return sent, nil
}

// emit sends an event for t. Delivery failures are logged and counted but
// never fail the calling operation.
func (s *Service) emit(ctx context.Context, kind notify.Kind, t *Task, oldStatus Status) bool {
	if s.notifier == nil {
		return false
	}
	ev := notify.Event{
		Kind:       kind,
		TaskID:     t.ID,
		TaskName:   t.Name,
		EmployeeID: t.EmployeeID,
		AssigneeID: t.AssignedTo,
		DueDate:    t.DueDate,
		OldStatus:  string(oldStatus),
		NewStatus:  string(t.Status),
		Priority:   string(t.Priority),
		OccurredAt: s.now(),
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		s.logger.Warn("notification failed",
			zap.String("kind", string(kind)),
			zap.Stringer(logger.FieldTaskID, t.ID),
			zap.Error(err))
		return false
	}
	return true
}

func sortByDueDate(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
}
