package httpapi

import (
	"net/http"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
	"github.com/andresouza701/lineops/internal/service"
)

// EmployeeHandler 员工CRUD的HTTP入口
type EmployeeHandler struct {
	employees *service.EmployeeService
	query     *service.QueryService
}

func NewEmployeeHandler(employees *service.EmployeeService, query *service.QueryService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, query: query}
}

// List GET /api/v1/employees?status=&team=&search=&page=&size=&include_deleted=
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.EmployeeFilters{
		Status:         q.Get("status"),
		Team:           q.Get("team"),
		Search:         q.Get("search"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.employees.ListEmployees(r.Context(), filters, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	}))
}

type employeeBody struct {
	RegistryCode   string `json:"registry_code"`
	FullName       string `json:"full_name"`
	CorporateEmail string `json:"corporate_email"`
	Team           string `json:"team"`
	Status         string `json:"status"`
}

// Create POST /api/v1/employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body employeeBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if body.RegistryCode == "" || body.FullName == "" || body.CorporateEmail == "" || body.Team == "" {
		writeJSON(w, http.StatusBadRequest, Fail("registry_code, full_name, corporate_email and team are required"))
		return
	}

	employeeID, err := h.employees.CreateEmployee(r.Context(), &domain.Employee{
		RegistryCode:   body.RegistryCode,
		FullName:       body.FullName,
		CorporateEmail: body.CorporateEmail,
		Team:           body.Team,
		Status:         body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]string{"employee_id": employeeID}))
}

// Get GET /api/v1/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request, employeeID string) {
	employee, err := h.employees.GetEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(employee))
}

// Update PUT /api/v1/employees/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request, employeeID string) {
	var body employeeBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	err := h.employees.UpdateEmployee(r.Context(), employeeID, &domain.Employee{
		RegistryCode:   body.RegistryCode,
		FullName:       body.FullName,
		CorporateEmail: body.CorporateEmail,
		Team:           body.Team,
		Status:         body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// Delete DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request, employeeID string) {
	if err := h.employees.DeleteEmployee(r.Context(), employeeID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// Allocations GET /api/v1/employees/{id}/allocations — 员工当前活跃分配
func (h *EmployeeHandler) Allocations(w http.ResponseWriter, r *http.Request, employeeID string) {
	allocations, err := h.query.ActiveAllocationsForEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(allocations))
}
