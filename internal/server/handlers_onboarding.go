package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/logger"
	"github.com/jonathan/hr-admin/internal/onboarding"
	"github.com/jonathan/hr-admin/internal/server/middleware"
	"github.com/jonathan/hr-admin/internal/types"
)

// ---------------------------------------------------------------------
// Onboarding Task Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req types.CreateTaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	exists, err := s.deps.Records.EmployeeExists(r.Context(), req.EmployeeID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if !exists {
		s.serviceError(w, r, &ErrNotFound{Kind: "employee", ID: req.EmployeeID})
		return
	}
	if err := s.checkDependenciesExist(r.Context(), uuid.Nil, req.Dependencies); err != nil {
		s.serviceError(w, r, err)
		return
	}

	t := &onboarding.Task{
		EmployeeID:     req.EmployeeID,
		Name:           req.Name,
		Description:    req.Description,
		Priority:       onboarding.Priority(req.Priority),
		Category:       onboarding.Category(req.Category),
		DueDate:        req.DueDate,
		AssignedTo:     req.AssignedTo,
		Dependencies:   req.Dependencies,
		EstimatedHours: req.EstimatedHours,
		Attachments:    attachments(req.Attachments, s.deps.Tasks.Now()),
	}
	for _, item := range req.Checklist {
		t.Checklist = append(t.Checklist, onboarding.ChecklistItem{Item: item})
	}
	if actorID, err := middleware.GetUserID(r); err == nil {
		t.CreatedBy = &actorID
	}

	created, err := s.deps.Tasks.Create(r.Context(), t)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logger.Info("onboarding task created",
		zap.Stringer(logger.FieldTaskID, created.ID),
		zap.Stringer(logger.FieldEmployeeID, created.EmployeeID),
		zap.Bool("email_sent", created.EmailSent))
	jsonResponse(w, http.StatusCreated, s.taskView(r.Context(), created))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	t, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskView(r.Context(), t))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	var req types.UpdateTaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Dependencies != nil {
		if err := s.checkDependenciesExist(r.Context(), id, req.Dependencies); err != nil {
			s.serviceError(w, r, err)
			return
		}
	}

	patch := onboarding.Patch{
		Name:           req.Name,
		Description:    req.Description,
		DueDate:        req.DueDate,
		AssignedTo:     req.AssignedTo,
		Dependencies:   req.Dependencies,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Attachments:    attachments(req.Attachments, time.Time{}),
		Checklist:      req.Checklist,
	}
	if req.Priority != nil {
		p := onboarding.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.Category != nil {
		c := onboarding.Category(*req.Category)
		patch.Category = &c
	}

	t, err := s.deps.Tasks.Update(r.Context(), id, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskView(r.Context(), t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	if _, err := s.deps.Tasks.Get(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := s.deps.Tasks.Delete(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	var req types.TaskStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var actor *uuid.UUID
	if actorID, err := middleware.GetUserID(r); err == nil {
		actor = &actorID
	}
	t, err := s.deps.Tasks.UpdateStatus(r.Context(), id, onboarding.Status(req.Status), actor)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskView(r.Context(), t))
}

func (s *Server) handleTaskComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	var req types.CommentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	t, err := s.deps.Tasks.AddComment(r.Context(), id, userID, req.Comment)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, s.taskView(r.Context(), t))
}

func (s *Server) handleTaskChecklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "task")
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("item"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid checklist item index")
		return
	}
	var req types.ChecklistRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	t, err := s.deps.Tasks.ToggleChecklistItem(r.Context(), id, index, req.Completed, userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskView(r.Context(), t))
}

func (s *Server) handleOverdueTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Tasks.OverdueTasks(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskViews(tasks))
}

func (s *Server) handleEmployeeTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	if _, ok := s.loadEmployee(w, r, id); !ok {
		return
	}

	filter := onboarding.Filter{
		Status:   onboarding.Status(r.URL.Query().Get("status")),
		Category: onboarding.Category(r.URL.Query().Get("category")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		errorResponse(w, http.StatusBadRequest, "Invalid status")
		return
	}

	tasks, err := s.deps.Tasks.TasksByEmployee(r.Context(), id, filter)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.taskViews(tasks))
}

func (s *Server) handleTaskStatistics(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := queryUUID(r, "employee_id")
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid employee ID")
		return
	}
	stats, err := s.deps.Tasks.Statistics(r.Context(), employeeID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// checkDependenciesExist fails when a dependency is unknown or is the task itself.
func (s *Server) checkDependenciesExist(ctx context.Context, self uuid.UUID, deps []uuid.UUID) error {
	for _, dep := range deps {
		if self != uuid.Nil && dep == self {
			return &ErrValidation{Field: "dependencies", Message: "a task cannot depend on itself"}
		}
		if _, err := s.deps.Tasks.Get(ctx, dep); err != nil {
			if HTTPStatus(err) == http.StatusNotFound {
				return &ErrValidation{Field: "dependencies", Message: "unknown task " + dep.String()}
			}
			return err
		}
	}
	return nil
}

// taskView adds the derived fields, including whether the task's
// dependencies are met. A failed dependency lookup leaves that field out.
func (s *Server) taskView(ctx context.Context, t *onboarding.Task) onboarding.View {
	v := t.View(s.deps.Tasks.Now())
	met, err := s.deps.Tasks.CheckDependencies(ctx, t)
	if err != nil {
		s.logger.Warn("dependency check failed", zap.Stringer(logger.FieldTaskID, t.ID), zap.Error(err))
		return v
	}
	v.DependenciesMet = &met
	return v
}

func (s *Server) taskViews(tasks []onboarding.Task) []onboarding.View {
	now := s.deps.Tasks.Now()
	out := make([]onboarding.View, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].View(now))
	}
	return out
}

func attachments(in []types.AttachmentRequest, uploadedAt time.Time) []onboarding.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]onboarding.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, onboarding.Attachment{Name: a.Name, URL: a.URL, UploadedAt: uploadedAt})
	}
	return out
}
