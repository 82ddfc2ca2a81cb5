package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/service"
)

// AllocationHandler 分配/释放操作的HTTP入口
type AllocationHandler struct {
	allocations *service.AllocationService
	logger      *zap.Logger
}

func NewAllocationHandler(allocations *service.AllocationService, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, logger: logger}
}

type allocateBody struct {
	EmployeeID  string `json:"employee_id"`
	PhoneLineID string `json:"phone_line_id"`
}

// Allocate POST /api/v1/allocations
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var body allocateBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if body.EmployeeID == "" || body.PhoneLineID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("employee_id and phone_line_id are required"))
		return
	}

	allocation, err := h.allocations.Allocate(r.Context(), service.AllocateRequest{
		EmployeeID:  body.EmployeeID,
		PhoneLineID: body.PhoneLineID,
		PrincipalID: principalID(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(allocation))
}

// Release POST /api/v1/allocations/{id}/release
func (h *AllocationHandler) Release(w http.ResponseWriter, r *http.Request, allocationID string) {
	allocation, err := h.allocations.Release(r.Context(), service.ReleaseRequest{
		AllocationID: allocationID,
		PrincipalID:  principalID(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(allocation))
}
