package server

import (
	"net/http"

	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/types"
)

// ---------------------------------------------------------------------
// Department Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := s.deps.Records.ListDepartments(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, departments)
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req types.DepartmentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	d := &db.Department{Name: req.Name, Description: req.Description, ManagerID: req.ManagerID}
	if err := s.deps.Records.CreateDepartment(r.Context(), d); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, d)
}

func (s *Server) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "department")
	if !ok {
		return
	}
	d, err := s.deps.Records.GetDepartment(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if d == nil {
		errorResponse(w, http.StatusNotFound, "Department not found")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "department")
	if !ok {
		return
	}
	var req types.DepartmentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	d := &db.Department{ID: id, Name: req.Name, Description: req.Description, ManagerID: req.ManagerID}
	if err := s.deps.Records.UpdateDepartment(r.Context(), d); err != nil {
		s.serviceError(w, r, err)
		return
	}
	updated, err := s.deps.Records.GetDepartment(r.Context(), id)
	if err != nil || updated == nil {
		// the update went through; fall back to what we wrote
		jsonResponse(w, http.StatusOK, d)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "department")
	if !ok {
		return
	}
	d, err := s.deps.Records.GetDepartment(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if d == nil {
		errorResponse(w, http.StatusNotFound, "Department not found")
		return
	}
	if d.EmployeeCount > 0 {
		errorResponse(w, http.StatusConflict, "Department still has employees")
		return
	}

	if err := s.deps.Records.DeleteDepartment(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
