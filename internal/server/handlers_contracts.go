package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/hr-admin/internal/contracts"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/logger"
)

// handleEmployeeContract renders an employee's contract as HTML, or as PDF
// when ?format=pdf is given.
func (s *Server) handleEmployeeContract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "employee")
	if !ok {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != "" && format != "html" && format != "pdf" {
		errorResponse(w, http.StatusBadRequest, "format must be html or pdf")
		return
	}

	e, ok := s.loadEmployee(w, r, id)
	if !ok {
		return
	}
	data, err := s.contractData(r.Context(), e)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	html, err := s.deps.Contracts.HTML(data)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	if format != "pdf" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}

	if s.deps.Printer == nil {
		errorResponse(w, http.StatusServiceUnavailable, "PDF rendering is not available")
		return
	}
	pdf, err := s.deps.Printer.PrintPDF(r.Context(), html)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logger.Info("contract generated",
		zap.Stringer(logger.FieldEmployeeID, e.ID),
		zap.Int("bytes", len(pdf)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"contract-%s.pdf\"", e.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// contractData combines the employee record with the company settings.
func (s *Server) contractData(ctx context.Context, e *db.Employee) (contracts.Data, error) {
	d := contracts.Data{
		CompanyName:      s.company.CompanyName,
		CompanyAddress:   s.company.CompanyAddress,
		EmployeeName:     e.Name,
		EmployeeEmail:    e.Email,
		EmployeeAddress:  e.Address,
		Position:         e.Position,
		EmploymentType:   e.EmploymentType,
		Salary:           e.Salary,
		Currency:         e.Currency,
		ProbationMonths:  s.company.ProbationMonths,
		NoticePeriodDays: s.company.NoticeDays,
		GeneratedOn:      s.deps.Tasks.Now().Format("2006-01-02"),
	}
	if e.StartDate != nil {
		d.StartDate = e.StartDate.Format("2006-01-02")
	}

	if e.DepartmentID != nil {
		dept, err := s.deps.Records.GetDepartment(ctx, *e.DepartmentID)
		if err != nil {
			return d, err
		}
		if dept != nil {
			d.Department = dept.Name
		}
	}
	if e.ManagerID != nil {
		manager, err := s.deps.Records.GetEmployee(ctx, *e.ManagerID)
		if err != nil {
			return d, err
		}
		if manager != nil {
			d.ManagerName = manager.Name
		}
	}
	return d, nil
}
