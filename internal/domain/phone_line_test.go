package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectLineStatus(t *testing.T) {
	assert.Equal(t, LineStatusAllocated, ProjectLineStatus(OutcomeAllocated))
	assert.Equal(t, LineStatusAvailable, ProjectLineStatus(OutcomeReleased))
}

func TestValidLineStatus(t *testing.T) {
	for _, status := range PhoneLineStatuses {
		assert.True(t, ValidLineStatus(status), status)
	}
	assert.False(t, ValidLineStatus("available")) // 大小写敏感
	assert.False(t, ValidLineStatus("BROKEN"))
	assert.False(t, ValidLineStatus(""))
}

func TestValidSIMStatus(t *testing.T) {
	for _, status := range SIMCardStatuses {
		assert.True(t, ValidSIMStatus(status), status)
	}
	assert.False(t, ValidSIMStatus("EXPIRED"))
}
