package recruitment

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/metrics"
	"github.com/jonathan/hr-admin/internal/scoring"
)

var (
	// ErrNotFound is returned when a candidate ID does not resolve.
	ErrNotFound = errors.New("candidate not found")
	// ErrDuplicateEmail is returned when another candidate already uses the email.
	ErrDuplicateEmail = errors.New("candidate email already exists")
)

// Store persists candidates. GetCandidate returns (nil, nil) when missing.
type Store interface {
	CreateCandidate(ctx context.Context, c *Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)
	UpdateCandidate(ctx context.Context, c *Candidate) error
	DeleteCandidate(ctx context.Context, id uuid.UUID) error
	ListCandidates(ctx context.Context, f ListFilter) ([]Candidate, error)
	CandidateEmailExists(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	CountCandidatesByStatus(ctx context.Context) (map[Status]int, error)
}

// Service owns candidate writes so the CV score cannot drift from its inputs.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a Service. A nil logger disables logging.
func NewService(store Store, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: l.Named("recruitment")}
}

// Create scores and stores a new candidate.
func (s *Service) Create(ctx context.Context, c *Candidate) (*Candidate, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	exists, err := s.store.CandidateEmailExists(ctx, c.Email, uuid.Nil)
	if err != nil {
		return nil, errors.Wrap(err, "check candidate email")
	}
	if exists {
		return nil, errors.Wrapf(ErrDuplicateEmail, "%s", c.Email)
	}

	now := s.now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusApplied
	}
	if c.AppliedAt.IsZero() {
		c.AppliedAt = now
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Interviews == nil {
		c.Interviews = []Interview{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	c.CVScore = scoring.Apply(nil, 0, c.ScoringInput())
	metrics.CandidateScores.Observe(float64(c.CVScore))

	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create candidate")
	}
	s.logger.Debug("candidate created",
		zap.Stringer("candidate_id", c.ID),
		zap.String("position", c.Position),
		zap.Int("cv_score", c.CVScore))
	return c, nil
}

// Get loads a candidate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get candidate %s", id)
	}
	if c == nil {
		return nil, errors.Wrapf(ErrNotFound, "candidate %s", id)
	}
	return c, nil
}

// Patch holds editable candidate fields. Nil fields are left unchanged.
type Patch struct {
	Name            *string
	Email           *string
	Phone           *string
	ResumeText      *string
	Position        *string
	Department      *string
	YearsExperience *int
	Skills          []string
	Education       *Education
	Source          *string
	ExpectedSalary  *float64
	Availability    *string
	Notes           *string
	Tags            []string
	AssignedTo      *uuid.UUID
}

// Update applies p. The score is recomputed only when the résumé, skills or
// position changed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Candidate, error) {
	return s.mutate(ctx, id, func(c *Candidate) error {
		if p.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*p.Email))
			if email != c.Email {
				exists, err := s.store.CandidateEmailExists(ctx, email, c.ID)
				if err != nil {
					return errors.Wrap(err, "check candidate email")
				}
				if exists {
					return errors.Wrapf(ErrDuplicateEmail, "%s", email)
				}
				c.Email = email
			}
		}
		setIf(&c.Name, p.Name)
		setIf(&c.Phone, p.Phone)
		setIf(&c.ResumeText, p.ResumeText)
		setIf(&c.Position, p.Position)
		setIf(&c.Department, p.Department)
		setIf(&c.YearsExperience, p.YearsExperience)
		setIf(&c.Education, p.Education)
		setIf(&c.Source, p.Source)
		setIf(&c.ExpectedSalary, p.ExpectedSalary)
		setIf(&c.Availability, p.Availability)
		setIf(&c.Notes, p.Notes)
		if p.Skills != nil {
			c.Skills = p.Skills
		}
		if p.Tags != nil {
			c.Tags = p.Tags
		}
		if p.AssignedTo != nil {
			c.AssignedTo = p.AssignedTo
		}
		return nil
	})
}

// AttachCV records an uploaded CV and replaces the résumé text extracted from it.
func (s *Service) AttachCV(ctx context.Context, id uuid.UUID, path, text string) (*Candidate, error) {
	return s.mutate(ctx, id, func(c *Candidate) error {
		c.CVPath = path
		c.ResumeText = text
		return nil
	})
}

// UpdateStatus moves a candidate to another pipeline stage.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Candidate, error) {
	return s.mutate(ctx, id, func(c *Candidate) error {
		c.Status = status
		now := s.now()
		c.LastContactAt = &now
		return nil
	})
}

// AddInterview appends an interview record. Scheduling the first interview
// moves an applied or screening candidate to interview-scheduled.
func (s *Service) AddInterview(ctx context.Context, id uuid.UUID, iv Interview) (*Candidate, error) {
	return s.mutate(ctx, id, func(c *Candidate) error {
		if iv.Status == "" {
			iv.Status = "scheduled"
		}
		c.Interviews = append(c.Interviews, iv)
		if c.Status == StatusApplied || c.Status == StatusScreening {
			c.Status = StatusInterviewScheduled
		}
		now := s.now()
		c.LastContactAt = &now
		return nil
	})
}

// Delete removes a candidate.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteCandidate(ctx, id); err != nil {
		return errors.Wrapf(err, "delete candidate %s", id)
	}
	return nil
}

// List returns candidates matching f.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Candidate, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	out, err := s.store.ListCandidates(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list candidates")
	}
	return out, nil
}

// CountByStatus returns how many candidates sit in each pipeline stage.
// Stages without candidates are reported as 0.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts, err := s.store.CountCandidatesByStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count candidates by status")
	}
	out := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		out[st] = counts[st]
	}
	return out, nil
}

// mutate loads a candidate, applies fn, rescoring when the scoring inputs
// changed, and writes it back.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Candidate) error) (*Candidate, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := c.ScoringInput()
	prev.Skills = slices.Clone(prev.Skills)
	prevScore := c.CVScore

	if err := fn(c); err != nil {
		return nil, err
	}

	c.CVScore = scoring.Apply(&prev, prevScore, c.ScoringInput())
	if c.CVScore != prevScore {
		metrics.CandidateScores.Observe(float64(c.CVScore))
	}
	c.UpdatedAt = s.now()

	if err := s.store.UpdateCandidate(ctx, c); err != nil {
		return nil, errors.Wrapf(err, "update candidate %s", id)
	}
	return c, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
