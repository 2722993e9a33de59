package onboarding

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// memStore is an in-memory Store. Records are copied on the way in and out
// so tests observe only what was persisted.
type memStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]Task
	updates int
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[uuid.UUID]Task)}
}

func clone(t Task) Task {
	t.Dependencies = slices.Clone(t.Dependencies)
	t.Attachments = slices.Clone(t.Attachments)
	t.Comments = slices.Clone(t.Comments)
	t.Checklist = slices.Clone(t.Checklist)
	return t
}

func (m *memStore) put(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = clone(t)
}

func (m *memStore) CreateTask(_ context.Context, t *Task) error {
	if m.failOn == "create" {
		return errors.New("insert failed")
	}
	m.put(*t)
	return nil
}

func (m *memStore) GetTask(_ context.Context, id uuid.UUID) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	c := clone(t)
	return &c, nil
}

func (m *memStore) GetTasks(_ context.Context, ids []uuid.UUID) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (m *memStore) UpdateTask(_ context.Context, t *Task) error {
	if m.failOn == "update" {
		return errors.New("update failed")
	}
	m.mu.Lock()
	m.updates++
	m.mu.Unlock()
	m.put(*t)
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memStore) ListTasks(_ context.Context, q Query) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if q.EmployeeID != nil && t.EmployeeID != *q.EmployeeID {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, t.Status) {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.DueBefore != nil && !t.DueDate.Before(*q.DueBefore) {
			continue
		}
		out = append(out, clone(t))
	}
	return out, nil
}

func (m *memStore) CountTasksByStatus(_ context.Context, employeeID *uuid.UUID) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[Status]int)
	for _, t := range m.tasks {
		if employeeID != nil && t.EmployeeID != *employeeID {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}
