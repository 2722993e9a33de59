package server

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/recruitment"
	"github.com/jonathan/hr-admin/internal/types"
)

// cvFormField is the multipart field carrying the CV file.
const cvFormField = "cv"

// ---------------------------------------------------------------------
// Candidate Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := recruitment.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		errorResponse(w, http.StatusBadRequest, "Invalid status")
		return
	}
	sort := q.Get("sort")
	if sort != "" && sort != recruitment.SortScore && sort != recruitment.SortApplied {
		errorResponse(w, http.StatusBadRequest, "sort must be score or applied")
		return
	}

	filter := recruitment.ListFilter{
		Status:     status,
		Department: q.Get("department"),
		Position:   q.Get("position"),
		MinScore:   queryInt(r, "min_score", 0),
		Search:     q.Get("search"),
		Sort:       sort,
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}
	candidates, err := s.deps.Candidates.List(r.Context(), filter)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCandidateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	c := &recruitment.Candidate{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ResumeText:      req.ResumeText,
		Position:        req.Position,
		Department:      req.Department,
		YearsExperience: req.YearsExperience,
		Skills:          req.Skills,
		Source:          req.Source,
		ExpectedSalary:  req.ExpectedSalary,
		Availability:    req.Availability,
		Notes:           req.Notes,
		Tags:            req.Tags,
		AssignedTo:      req.AssignedTo,
	}
	if req.Education != nil {
		c.Education = education(req.Education)
	}

	created, err := s.deps.Candidates.Create(r.Context(), c)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	c, err := s.deps.Candidates.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	var req types.UpdateCandidateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	patch := recruitment.Patch{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		ResumeText:      req.ResumeText,
		Position:        req.Position,
		Department:      req.Department,
		YearsExperience: req.YearsExperience,
		Skills:          req.Skills,
		Source:          req.Source,
		ExpectedSalary:  req.ExpectedSalary,
		Availability:    req.Availability,
		Notes:           req.Notes,
		Tags:            req.Tags,
		AssignedTo:      req.AssignedTo,
	}
	if req.Education != nil {
		ed := education(req.Education)
		patch.Education = &ed
	}

	c, err := s.deps.Candidates.Update(r.Context(), id, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	if _, err := s.deps.Candidates.Get(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := s.deps.Candidates.Delete(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	if _, err := s.deps.Candidates.Get(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}

	if limit := s.deps.CVs.MaxSize(); limit > 0 {
		// leave room for the multipart envelope around the file
		r.Body = http.MaxBytesReader(w, r.Body, limit+maxJSONBody)
	}
	file, header, err := r.FormFile(cvFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, "CV file too large")
			return
		}
		errorResponse(w, http.StatusBadRequest, "Missing CV file in form field \""+cvFormField+"\"")
		return
	}
	defer file.Close()

	doc, err := s.deps.CVs.Save(header.Filename, file)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	c, err := s.deps.Candidates.AttachCV(r.Context(), id, doc.Path, doc.Text)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logger.Info("cv uploaded",
		zap.Stringer("candidate_id", id),
		zap.String("filename", doc.Filename),
		zap.Int64("size", doc.Size),
		zap.Int("cv_score", c.CVScore))
	jsonResponse(w, http.StatusOK, map[string]any{"candidate": c, "document": doc})
}

func (s *Server) handleCandidateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	var req types.CandidateStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	c, err := s.deps.Candidates.UpdateStatus(r.Context(), id, recruitment.Status(req.Status))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleAddInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "candidate")
	if !ok {
		return
	}
	var req types.InterviewRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	c, err := s.deps.Candidates.AddInterview(r.Context(), id, recruitment.Interview{
		Date:          req.Date,
		InterviewerID: req.InterviewerID,
		Type:          req.Type,
		Score:         req.Score,
		Notes:         req.Notes,
		Status:        req.Status,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

func education(e *types.EducationRequest) recruitment.Education {
	return recruitment.Education{
		Degree:         e.Degree,
		Field:          e.Field,
		Institution:    e.Institution,
		GraduationYear: e.GraduationYear,
	}
}
