package httpapi

import (
	"errors"
	"net/http"

	"github.com/andresouza701/lineops/internal/domain"
)

// statusForError 业务错误到HTTP状态码
// 业务规则冲突统一409；锁争用503提示调用方稍后重试
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrAlreadyAllocated),
		errors.Is(err, domain.ErrNotAvailable),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrReferencedEntity),
		errors.Is(err, domain.ErrLineStillAllocated),
		errors.Is(err, domain.ErrStatusReserved),
		errors.Is(err, domain.ErrEmployeeHasActiveLines):
		return http.StatusConflict
	case errors.Is(err, domain.ErrContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), Fail(err.Error()))
}
