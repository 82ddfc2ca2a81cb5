package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresouza701/lineops/internal/domain"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrPermissionDenied, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrCapacityExceeded, http.StatusConflict},
		{domain.ErrAlreadyAllocated, http.StatusConflict},
		{domain.ErrNotAvailable, http.StatusConflict},
		{domain.ErrNotActive, http.StatusConflict},
		{domain.ErrReferencedEntity, http.StatusConflict},
		{domain.ErrLineStillAllocated, http.StatusConflict},
		{domain.ErrStatusReserved, http.StatusConflict},
		{domain.ErrEmployeeHasActiveLines, http.StatusConflict},
		{domain.ErrContention, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.status, statusForError(c.err), c.err.Error())
		// 包装后的错误同样命中映射
		assert.Equal(t, c.status, statusForError(fmt.Errorf("context: %w", c.err)))
	}
}
