package server

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hr-admin/internal/types"
)

// handleDashboard gathers the headline counts concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var d types.Dashboard
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		n, err := s.deps.Records.CountEmployees(ctx)
		d.Employees = n
		return err
	})
	g.Go(func() error {
		n, err := s.deps.Records.CountDepartments(ctx)
		d.Departments = n
		return err
	})
	g.Go(func() error {
		counts, err := s.deps.Candidates.CountByStatus(ctx)
		if err != nil {
			return err
		}
		d.Candidates = make(map[string]int, len(counts))
		for status, n := range counts {
			d.Candidates[string(status)] = n
		}
		return nil
	})
	g.Go(func() error {
		stats, err := s.deps.Tasks.Statistics(ctx, nil)
		d.Onboarding = stats
		return err
	})
	g.Go(func() error {
		overdue, err := s.deps.Tasks.OverdueTasks(ctx)
		d.OverdueTasks = len(overdue)
		return err
	})

	if err := g.Wait(); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, d)
}
