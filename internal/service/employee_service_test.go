package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/domain"
)

func TestUpdateEmployee_DeactivateWithActiveLines(t *testing.T) {
	employees := newFakeEmployeesRepo()
	allocations := &fakeAllocationsRepo{activeCount: 1}
	svc := NewEmployeeService(employees, allocations, zap.NewNop())

	err := svc.UpdateEmployee(context.Background(), "emp-1", &domain.Employee{
		Status: domain.EmployeeStatusInactive,
	})
	assert.ErrorIs(t, err, domain.ErrEmployeeHasActiveLines)
	assert.Empty(t, employees.updated)
}

func TestUpdateEmployee_DeactivateWithoutLines(t *testing.T) {
	employees := newFakeEmployeesRepo()
	allocations := &fakeAllocationsRepo{activeCount: 0}
	svc := NewEmployeeService(employees, allocations, zap.NewNop())

	err := svc.UpdateEmployee(context.Background(), "emp-1", &domain.Employee{
		Status: domain.EmployeeStatusInactive,
	})
	require.NoError(t, err)
	assert.Contains(t, employees.updated, "emp-1")
}

func TestUpdateEmployee_OtherFieldsSkipGuard(t *testing.T) {
	// 非停用更新不检查活跃分配
	employees := newFakeEmployeesRepo()
	allocations := &fakeAllocationsRepo{activeCount: 2}
	svc := NewEmployeeService(employees, allocations, zap.NewNop())

	err := svc.UpdateEmployee(context.Background(), "emp-1", &domain.Employee{
		Team: "Suporte",
	})
	require.NoError(t, err)
}

func TestDeleteEmployee_WithActiveLines(t *testing.T) {
	employees := newFakeEmployeesRepo()
	allocations := &fakeAllocationsRepo{activeCount: 2}
	svc := NewEmployeeService(employees, allocations, zap.NewNop())

	err := svc.DeleteEmployee(context.Background(), "emp-1")
	assert.ErrorIs(t, err, domain.ErrEmployeeHasActiveLines)
	assert.Empty(t, employees.deleted)
}

func TestDeleteEmployee_ReferencedByHistory(t *testing.T) {
	employees := newFakeEmployeesRepo()
	employees.deleteErr = domain.ErrReferencedEntity
	allocations := &fakeAllocationsRepo{activeCount: 0}
	svc := NewEmployeeService(employees, allocations, zap.NewNop())

	err := svc.DeleteEmployee(context.Background(), "emp-1")
	assert.ErrorIs(t, err, domain.ErrReferencedEntity)
}

func TestCreateEmployee_InvalidStatus(t *testing.T) {
	employees := newFakeEmployeesRepo()
	svc := NewEmployeeService(employees, &fakeAllocationsRepo{}, zap.NewNop())

	_, err := svc.CreateEmployee(context.Background(), &domain.Employee{
		RegistryCode:   "E1001",
		FullName:       "Maria Silva",
		CorporateEmail: "maria.silva@corp.example",
		Team:           "Vendas",
		Status:         "on_vacation",
	})
	assert.Error(t, err)
}
