package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/server/middleware"
	"github.com/jonathan/hr-admin/internal/types"
)

const defaultCurrency = "EUR"

// ---------------------------------------------------------------------
// Employee Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	departmentID, ok := queryUUID(r, "department_id")
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid department ID")
		return
	}
	filters := db.EmployeeFilters{
		DepartmentID: departmentID,
		Status:       db.EmployeeStatus(r.URL.Query().Get("status")),
		Search:       r.URL.Query().Get("search"),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}

	employees, err := s.deps.Records.ListEmployees(r.Context(), filters)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"employees": employees,
		"count":     len(employees),
		"limit":     filters.Limit,
		"offset":    filters.Offset,
	})
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req types.EmployeeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	e := &db.Employee{}
	if err := s.applyEmployeeRequest(r, e, &req); err != nil {
		s.serviceError(w, r, err)
		return
	}

	if err := s.deps.Records.CreateEmployee(r.Context(), e); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, e)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	e, ok := s.loadEmployee(w, r, id)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	var req types.EmployeeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	e, err := s.deps.Records.GetEmployee(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if e == nil {
		errorResponse(w, http.StatusNotFound, "Employee not found")
		return
	}
	if req.ManagerID != nil && *req.ManagerID == id {
		errorResponse(w, http.StatusBadRequest, "An employee cannot manage themselves")
		return
	}
	if err := s.applyEmployeeRequest(r, e, &req); err != nil {
		s.serviceError(w, r, err)
		return
	}

	if err := s.deps.Records.UpdateEmployee(r.Context(), e); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	exists, err := s.deps.Records.EmployeeExists(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if !exists {
		errorResponse(w, http.StatusNotFound, "Employee not found")
		return
	}

	if err := s.deps.Records.DeleteEmployee(r.Context(), id); err != nil {
		s.serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadEmployee fetches an employee the caller may see. Plain employees may
// only see their own record. It writes the error response itself.
func (s *Server) loadEmployee(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*db.Employee, bool) {
	e, err := s.deps.Records.GetEmployee(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return nil, false
	}
	if e == nil {
		errorResponse(w, http.StatusNotFound, "Employee not found")
		return nil, false
	}
	if !canSeeEmployee(r, e) {
		errorResponse(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return e, true
}

func canSeeEmployee(r *http.Request, e *db.Employee) bool {
	role, _ := middleware.GetRole(r)
	if role != string(db.RoleEmployee) {
		return true
	}
	userID, err := middleware.GetUserID(r)
	return err == nil && e.UserID != nil && *e.UserID == userID
}

// applyEmployeeRequest copies req onto e, checking that the referenced
// department exists.
func (s *Server) applyEmployeeRequest(r *http.Request, e *db.Employee, req *types.EmployeeRequest) error {
	if req.DepartmentID != nil {
		d, err := s.deps.Records.GetDepartment(r.Context(), *req.DepartmentID)
		if err != nil {
			return err
		}
		if d == nil {
			return &ErrValidation{Field: "department_id", Message: "department does not exist"}
		}
	}

	e.UserID = req.UserID
	e.Name = req.Name
	e.Email = req.Email
	e.Phone = req.Phone
	e.Address = req.Address
	e.Position = req.Position
	e.DepartmentID = req.DepartmentID
	e.ManagerID = req.ManagerID
	e.EmploymentType = req.EmploymentType
	e.Status = db.EmployeeStatus(req.Status)
	e.Salary = req.Salary
	e.Currency = req.Currency
	if e.Currency == "" {
		e.Currency = defaultCurrency
	}
	e.StartDate = nil
	if req.StartDate != "" {
		// validated as YYYY-MM-DD already
		t, _ := time.Parse("2006-01-02", req.StartDate)
		e.StartDate = &db.Date{Time: t}
	}
	if e.EmploymentType == "" {
		e.EmploymentType = db.EmploymentFullTime
	}
	if e.Status == "" {
		e.Status = db.EmployeeActive
	}
	return nil
}
