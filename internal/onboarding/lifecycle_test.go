package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/hr-admin/internal/notify"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type clock struct {
	t time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	return NewService(store, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

func seed(t *testing.T, store *memStore, mutate func(*Task)) Task {
	t.Helper()
	task := Task{
		ID:         uuid.New(),
		EmployeeID: uuid.New(),
		Name:       "Set up laptop",
		Status:     StatusPending,
		Priority:   PriorityMedium,
		Category:   CategoryITSetup,
		DueDate:    time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		AssignedTo: uuid.New(),
	}
	if mutate != nil {
		mutate(&task)
	}
	store.put(task)
	return task
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and announcement", func(t *testing.T) {
		store := newMemStore()
		rec := &recorder{}
		clk := newClock()
		svc := newTestService(t, store, WithNotifier(rec), WithClock(clk.now))

		in := &Task{
			EmployeeID: uuid.New(),
			Name:       "Sign contract",
			Status:     StatusCompleted,
			DueDate:    clk.t.Add(72 * time.Hour),
			AssignedTo: uuid.New(),
		}
		created, err := svc.Create(ctx, in)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, StatusPending, created.Status)
		assert.Nil(t, created.CompletedAt)
		assert.Equal(t, PriorityMedium, created.Priority)
		assert.Equal(t, CategoryOther, created.Category)
		assert.Equal(t, clk.t, created.CreatedAt)
		assert.NotNil(t, created.Comments)
		assert.True(t, created.EmailSent)

		require.Len(t, rec.events, 1)
		ev := rec.events[0]
		assert.Equal(t, notify.KindTaskCreated, ev.Kind)
		assert.Equal(t, "Sign contract", ev.TaskName)
		assert.Equal(t, in.EmployeeID, ev.EmployeeID)
		assert.Equal(t, in.AssignedTo, ev.AssigneeID)
		assert.Equal(t, in.DueDate, ev.DueDate)
		assert.Equal(t, "pending", ev.NewStatus)

		stored, err := store.GetTask(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, stored.EmailSent)
	})

	t.Run("failed announcement is not fatal", func(t *testing.T) {
		store := newMemStore()
		svc := newTestService(t, store, WithNotifier(&recorder{err: errors.New("smtp down")}))

		created, err := svc.Create(ctx, &Task{Name: "Badge", EmployeeID: uuid.New(), AssignedTo: uuid.New()})
		require.NoError(t, err)
		assert.False(t, created.EmailSent)
	})

	t.Run("no notifier", func(t *testing.T) {
		svc := newTestService(t, newMemStore())
		created, err := svc.Create(ctx, &Task{Name: "Badge"})
		require.NoError(t, err)
		assert.False(t, created.EmailSent)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.failOn = "create"
		_, err := newTestService(t, store).Create(ctx, &Task{Name: "Badge"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert failed")
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()

	t.Run("pending to in-progress leaves completed date unset", func(t *testing.T) {
		store := newMemStore()
		task := seed(t, store, nil)
		svc := newTestService(t, store)

		got, err := svc.UpdateStatus(ctx, task.ID, StatusInProgress, &actor)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, got.Status)
		assert.Nil(t, got.CompletedAt)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "Status changed from pending to in-progress", got.Comments[0].Text)
		assert.Equal(t, actor, got.Comments[0].UserID)
	})

	t.Run("in-progress to completed stamps once and audits once", func(t *testing.T) {
		store := newMemStore()
		task := seed(t, store, func(tk *Task) { tk.Status = StatusInProgress })
		clk := newClock()
		rec := &recorder{}
		svc := newTestService(t, store, WithClock(clk.now), WithNotifier(rec))

		got, err := svc.UpdateStatus(ctx, task.ID, StatusCompleted, &actor)
		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, clk.t, *got.CompletedAt)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "Status changed from in-progress to completed", got.Comments[0].Text)

		require.Len(t, rec.events, 1)
		assert.Equal(t, notify.KindStatusChanged, rec.events[0].Kind)
		assert.Equal(t, "in-progress", rec.events[0].OldStatus)
		assert.Equal(t, "completed", rec.events[0].NewStatus)

		stamped := *got.CompletedAt
		clk.advance(48 * time.Hour)
		again, err := svc.UpdateStatus(ctx, task.ID, StatusCompleted, nil)
		require.NoError(t, err)
		assert.Equal(t, stamped, *again.CompletedAt)
	})

	t.Run("no actor means no audit comment", func(t *testing.T) {
		store := newMemStore()
		task := seed(t, store, nil)
		got, err := newTestService(t, store).UpdateStatus(ctx, task.ID, StatusCancelled, nil)
		require.NoError(t, err)
		assert.Empty(t, got.Comments)
	})

	t.Run("any transition is allowed by default", func(t *testing.T) {
		store := newMemStore()
		done := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		task := seed(t, store, func(tk *Task) {
			tk.Status = StatusCompleted
			tk.CompletedAt = &done
		})
		got, err := newTestService(t, store).UpdateStatus(ctx, task.ID, StatusPending, &actor)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, done, *got.CompletedAt)
	})

	t.Run("strict policy rejects reopening completed work", func(t *testing.T) {
		store := newMemStore()
		task := seed(t, store, func(tk *Task) { tk.Status = StatusCompleted })
		svc := newTestService(t, store, WithPolicy(StrictTransitions))

		_, err := svc.UpdateStatus(ctx, task.ID, StatusPending, &actor)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		assert.Equal(t, 0, store.updates)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := newTestService(t, newMemStore()).UpdateStatus(ctx, uuid.New(), StatusCompleted, nil)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := newMemStore()
		task := seed(t, store, nil)
		store.failOn = "update"
		rec := &recorder{}
		_, err := newTestService(t, store, WithNotifier(rec)).UpdateStatus(ctx, task.ID, StatusCompleted, nil)
		require.Error(t, err)
		assert.Empty(t, rec.events)
	})
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	task := seed(t, store, nil)
	clk := newClock()
	user := uuid.New()

	got, err := newTestService(t, store, WithClock(clk.now)).AddComment(ctx, task.ID, user, "Laptop ordered")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, Comment{UserID: user, Text: "Laptop ordered", CreatedAt: clk.t}, got.Comments[0])

	stored, _ := store.GetTask(ctx, task.ID)
	assert.Len(t, stored.Comments, 1)
}

func TestCheckDependencies(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(t, store)

	done := seed(t, store, func(tk *Task) { tk.Status = StatusCompleted })
	open := seed(t, store, func(tk *Task) { tk.Status = StatusInProgress })

	tests := []struct {
		name string
		deps []uuid.UUID
		want bool
	}{
		{"no dependencies", nil, true},
		{"all completed", []uuid.UUID{done.ID}, true},
		{"one incomplete", []uuid.UUID{done.ID, open.ID}, false},
		{"deleted dependency is ignored", []uuid.UUID{done.ID, uuid.New()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.CheckDependencies(ctx, &Task{ID: uuid.New(), Dependencies: tt.deps})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestOverdueTasks(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clk := newClock()
	past := clk.t.Add(-24 * time.Hour)
	older := clk.t.Add(-72 * time.Hour)

	late := seed(t, store, func(tk *Task) { tk.DueDate = past })
	oldest := seed(t, store, func(tk *Task) { tk.DueDate = older; tk.Status = StatusInProgress })
	seed(t, store, func(tk *Task) { tk.DueDate = past; tk.Status = StatusCompleted })
	seed(t, store, func(tk *Task) { tk.DueDate = past; tk.Status = StatusCancelled })
	seed(t, store, func(tk *Task) { tk.DueDate = clk.t })
	seed(t, store, func(tk *Task) { tk.DueDate = clk.t.Add(time.Hour) })

	got, err := newTestService(t, store, WithClock(clk.now)).OverdueTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, oldest.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
	for _, tk := range got {
		assert.NotContains(t, []Status{StatusCompleted, StatusCancelled}, tk.Status)
		assert.True(t, tk.DueDate.Before(clk.t))
	}
}

func TestTasksByEmployee(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	emp := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	third := seed(t, store, func(tk *Task) { tk.EmployeeID = emp; tk.DueDate = base.Add(48 * time.Hour) })
	first := seed(t, store, func(tk *Task) { tk.EmployeeID = emp; tk.DueDate = base; tk.Category = CategoryTraining })
	second := seed(t, store, func(tk *Task) {
		tk.EmployeeID = emp
		tk.DueDate = base.Add(24 * time.Hour)
		tk.Status = StatusCompleted
	})
	seed(t, store, nil)

	svc := newTestService(t, store)

	all, err := svc.TasksByEmployee(ctx, emp, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	completed, err := svc.TasksByEmployee(ctx, emp, Filter{Status: StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, second.ID, completed[0].ID)

	training, err := svc.TasksByEmployee(ctx, emp, Filter{Category: CategoryTraining})
	require.NoError(t, err)
	require.Len(t, training, 1)
	assert.Equal(t, first.ID, training[0].ID)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	emp := uuid.New()

	for _, st := range []Status{StatusPending, StatusPending, StatusInProgress, StatusCompleted, StatusCancelled} {
		seed(t, store, func(tk *Task) { tk.EmployeeID = emp; tk.Status = st })
	}
	seed(t, store, func(tk *Task) { tk.Status = StatusCompleted })

	svc := newTestService(t, store)

	scoped, err := svc.Statistics(ctx, &emp)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Pending: 2, InProgress: 1, Completed: 1, Cancelled: 1, Total: 5}, scoped)
	assert.Equal(t, scoped.Pending+scoped.InProgress+scoped.Completed+scoped.Cancelled, scoped.Total)

	global, err := svc.Statistics(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, global.Total)
	assert.Equal(t, 2, global.Completed)
}

func TestToggleChecklistItem(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	task := seed(t, store, func(tk *Task) {
		tk.Checklist = []ChecklistItem{{Item: "Email account"}, {Item: "VPN"}}
	})
	clk := newClock()
	user := uuid.New()
	svc := newTestService(t, store, WithClock(clk.now))

	got, err := svc.ToggleChecklistItem(ctx, task.ID, 1, true, user)
	require.NoError(t, err)
	assert.False(t, got.Checklist[0].Completed)
	assert.True(t, got.Checklist[1].Completed)
	assert.Equal(t, clk.t, *got.Checklist[1].CompletedAt)
	assert.Equal(t, user, *got.Checklist[1].CompletedBy)
	// checklist progress does not move the task itself
	assert.Equal(t, StatusPending, got.Status)

	got, err = svc.ToggleChecklistItem(ctx, task.ID, 1, false, user)
	require.NoError(t, err)
	assert.False(t, got.Checklist[1].Completed)
	assert.Nil(t, got.Checklist[1].CompletedAt)

	_, err = svc.ToggleChecklistItem(ctx, task.ID, 2, true, user)
	assert.True(t, errors.Is(err, ErrChecklistItemNotFound))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	task := seed(t, store, func(tk *Task) { tk.ReminderSent = true })
	clk := newClock()
	newDue := clk.t.Add(10 * 24 * time.Hour)

	got, err := newTestService(t, store, WithClock(clk.now)).Update(ctx, task.ID, Patch{
		Name:        ptr("Set up workstation"),
		Priority:    ptr(PriorityUrgent),
		DueDate:     &newDue,
		Checklist:   []string{"Monitor"},
		Attachments: []Attachment{{Name: "policy.pdf", URL: "https://files.example.com/policy.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Set up workstation", got.Name)
	assert.Equal(t, PriorityUrgent, got.Priority)
	assert.Equal(t, newDue, got.DueDate)
	assert.False(t, got.ReminderSent)
	assert.Equal(t, CategoryITSetup, got.Category)
	require.Len(t, got.Checklist, 1)
	assert.Equal(t, "Monitor", got.Checklist[0].Item)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, clk.t, got.Attachments[0].UploadedAt)
}

func TestSendReminders(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clk := newClock()

	soon := seed(t, store, func(tk *Task) { tk.DueDate = clk.t.Add(12 * time.Hour) })
	seed(t, store, func(tk *Task) { tk.DueDate = clk.t.Add(12 * time.Hour); tk.ReminderSent = true })
	seed(t, store, func(tk *Task) { tk.DueDate = clk.t.Add(12 * time.Hour); tk.Status = StatusCompleted })
	seed(t, store, func(tk *Task) { tk.DueDate = clk.t.Add(5 * 24 * time.Hour) })

	rec := &recorder{}
	svc := newTestService(t, store, WithClock(clk.now), WithNotifier(rec))

	n, err := svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, rec.events, 1)
	assert.Equal(t, notify.KindReminder, rec.events[0].Kind)
	assert.Equal(t, soon.ID, rec.events[0].TaskID)

	stored, _ := store.GetTask(ctx, soon.ID)
	assert.True(t, stored.ReminderSent)

	n, err = svc.SendReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	task := seed(t, store, nil)
	svc := newTestService(t, store)

	require.NoError(t, svc.Delete(ctx, task.ID))
	_, err := svc.Get(ctx, task.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
