package recruitment

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/hr-admin/internal/scoring"
)

type memStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]Candidate
}

func newMemStore() *memStore {
	return &memStore{candidates: make(map[uuid.UUID]Candidate)}
}

func (m *memStore) CreateCandidate(_ context.Context, c *Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Skills = slices.Clone(c.Skills)
	m.candidates[c.ID] = cp
	return nil
}

func (m *memStore) GetCandidate(_ context.Context, id uuid.UUID) (*Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, nil
	}
	c.Skills = slices.Clone(c.Skills)
	c.Interviews = slices.Clone(c.Interviews)
	return &c, nil
}

func (m *memStore) UpdateCandidate(ctx context.Context, c *Candidate) error {
	return m.CreateCandidate(ctx, c)
}

func (m *memStore) DeleteCandidate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.candidates, id)
	return nil
}

func (m *memStore) ListCandidates(_ context.Context, f ListFilter) ([]Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Candidate
	for _, c := range m.candidates {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if c.CVScore < f.MinScore {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) CandidateEmailExists(_ context.Context, email string, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.candidates {
		if id != exclude && strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountCandidatesByStatus(_ context.Context) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[Status]int)
	for _, c := range m.candidates {
		counts[c.Status]++
	}
	return counts, nil
}

func newBackendCandidate() *Candidate {
	return &Candidate{
		Name:       "Grace Hopper",
		Email:      "Grace@Example.com ",
		Position:   "Backend Developer",
		ResumeText: "Built services in node.js, python, sql, git, api",
	}
}

func TestCreate_ScoresCandidate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, zaptest.NewLogger(t))

	c, err := svc.Create(context.Background(), newBackendCandidate())
	require.NoError(t, err)

	assert.Equal(t, 50, c.CVScore)
	assert.Equal(t, StatusApplied, c.Status)
	assert.Equal(t, "grace@example.com", c.Email)
	assert.False(t, c.AppliedAt.IsZero())
	assert.NotNil(t, c.Skills)

	stored, _ := store.GetCandidate(context.Background(), c.ID)
	assert.Equal(t, 50, stored.CVScore)
}

func TestCreate_IgnoresClientScore(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	in := &Candidate{Email: "a@example.com", Position: "Intern", CVScore: 99}

	c, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, c.CVScore)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, newBackendCandidate())
	require.NoError(t, err)

	dup := newBackendCandidate()
	dup.Email = "grace@example.com"
	_, err = svc.Create(ctx, dup)
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
}

func TestUpdate_RecomputesOnlyForScoringFields(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, nil)

	c, err := svc.Create(ctx, newBackendCandidate())
	require.NoError(t, err)
	require.Equal(t, 50, c.CVScore)

	t.Run("unrelated fields keep the score", func(t *testing.T) {
		notes := "Strong referral"
		years := 10
		got, err := svc.Update(ctx, c.ID, Patch{Notes: &notes, YearsExperience: &years, Tags: []string{"referral"}})
		require.NoError(t, err)
		assert.Equal(t, 50, got.CVScore)
		assert.Equal(t, "Strong referral", got.Notes)
	})

	t.Run("skills change rescores", func(t *testing.T) {
		got, err := svc.Update(ctx, c.ID, Patch{Skills: []string{"react", "java"}})
		require.NoError(t, err)
		want := scoring.Score(scoring.Input{
			ResumeText:      c.ResumeText,
			Skills:          []string{"react", "java"},
			Position:        "Backend Developer",
			YearsExperience: 10,
		})
		assert.Equal(t, want, got.CVScore)
		assert.Equal(t, 100, got.CVScore)
	})

	t.Run("position change rescores", func(t *testing.T) {
		pos := "Intern"
		got, err := svc.Update(ctx, c.ID, Patch{Position: &pos})
		require.NoError(t, err)
		// skills 2*2 + experience min(30, 30)
		assert.Equal(t, 34, got.CVScore)
	})
}

func TestUpdate_EmailConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)

	a, err := svc.Create(ctx, &Candidate{Email: "a@example.com", Position: "Sales Lead"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &Candidate{Email: "b@example.com", Position: "Sales Lead"})
	require.NoError(t, err)

	taken := "B@example.com"
	_, err = svc.Update(ctx, a.ID, Patch{Email: &taken})
	assert.True(t, errors.Is(err, ErrDuplicateEmail))

	same := "a@example.com"
	_, err = svc.Update(ctx, a.ID, Patch{Email: &same})
	assert.NoError(t, err)
}

func TestAttachCV_ReplacesResumeAndRescores(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)

	c, err := svc.Create(ctx, &Candidate{Email: "d@example.com", Position: "Frontend Developer"})
	require.NoError(t, err)
	require.Equal(t, 0, c.CVScore)

	got, err := svc.AttachCV(ctx, c.ID, "uploads/cv.pdf", "react html css git python")
	require.NoError(t, err)
	assert.Equal(t, "uploads/cv.pdf", got.CVPath)
	assert.Equal(t, 50, got.CVScore)
}

func TestUpdateStatus_TouchesLastContact(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)
	c, err := svc.Create(ctx, newBackendCandidate())
	require.NoError(t, err)
	require.Nil(t, c.LastContactAt)

	got, err := svc.UpdateStatus(ctx, c.ID, StatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, StatusShortlisted, got.Status)
	assert.NotNil(t, got.LastContactAt)
	assert.Equal(t, 50, got.CVScore)
}

func TestAddInterview(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)
	c, err := svc.Create(ctx, newBackendCandidate())
	require.NoError(t, err)

	score := 80
	got, err := svc.AddInterview(ctx, c.ID, Interview{InterviewerID: uuid.New(), Type: "technical", Score: &score})
	require.NoError(t, err)
	require.Len(t, got.Interviews, 1)
	assert.Equal(t, "scheduled", got.Interviews[0].Status)
	assert.Equal(t, StatusInterviewScheduled, got.Status)
	assert.NotNil(t, got.LastContactAt)

	_, err = svc.UpdateStatus(ctx, c.ID, StatusOffered)
	require.NoError(t, err)
	got, err = svc.AddInterview(ctx, c.ID, Interview{Type: "hr", Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, StatusOffered, got.Status)
	assert.Len(t, got.Interviews, 2)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), StatusHired)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCountByStatus_ReportsEveryStage(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)
	_, err := svc.Create(ctx, newBackendCandidate())
	require.NoError(t, err)

	counts, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, len(Statuses))
	assert.Equal(t, 1, counts[StatusApplied])
	assert.Equal(t, 0, counts[StatusHired])
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusInterviewScheduled.Valid())
	assert.False(t, Status("interview_scheduled").Valid())
}
