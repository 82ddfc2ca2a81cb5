package service

import (
	"context"
	"time"

	"github.com/andresouza701/lineops/internal/audit"
	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
)

// fakeAuthorizer 固定放行/拒绝的权限判定
type fakeAuthorizer struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeAuthorizer) CanManageAllocations(ctx context.Context, principalID string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

// fakeAllocationsRepo 可注入错误序列的分配Repository
type fakeAllocationsRepo struct {
	repository.AllocationsRepository

	allocateErrs  []error
	allocateCalls int
	allocation    *domain.LineAllocation

	releaseErrs  []error
	releaseCalls int
	released     *domain.LineAllocation

	activeCount int
}

func (f *fakeAllocationsRepo) AllocateLine(ctx context.Context, employeeID, phoneLineID, allocatedBy string, now time.Time) (*domain.LineAllocation, error) {
	f.allocateCalls++
	if len(f.allocateErrs) > 0 {
		err := f.allocateErrs[0]
		f.allocateErrs = f.allocateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.allocation != nil {
		return f.allocation, nil
	}
	return &domain.LineAllocation{
		AllocationID: "alloc-fake",
		EmployeeID:   employeeID,
		PhoneLineID:  phoneLineID,
		AllocatedAt:  now,
		AllocatedBy:  allocatedBy,
		IsActive:     true,
		CreatedAt:    now,
	}, nil
}

func (f *fakeAllocationsRepo) ReleaseLine(ctx context.Context, allocationID, releasedBy string, now time.Time) (*domain.LineAllocation, error) {
	f.releaseCalls++
	if len(f.releaseErrs) > 0 {
		err := f.releaseErrs[0]
		f.releaseErrs = f.releaseErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.released != nil {
		return f.released, nil
	}
	return &domain.LineAllocation{
		AllocationID: allocationID,
		EmployeeID:   "emp-fake",
		PhoneLineID:  "line-fake",
		AllocatedAt:  now.Add(-time.Hour),
		ReleasedAt:   &now,
		ReleasedBy:   &releasedBy,
		AllocatedBy:  "user-fake",
		IsActive:     false,
		CreatedAt:    now.Add(-time.Hour),
	}, nil
}

func (f *fakeAllocationsRepo) CountActiveByEmployee(ctx context.Context, employeeID string) (int, error) {
	return f.activeCount, nil
}

// fakeSink 记录收到的审计事件
type fakeSink struct {
	events []audit.Event
	err    error
}

func (f *fakeSink) Emit(ctx context.Context, event audit.Event) error {
	f.events = append(f.events, event)
	return f.err
}

// fakeEmployeesRepo 内存员工Repository
type fakeEmployeesRepo struct {
	repository.EmployeesRepository

	byID       map[string]*domain.Employee
	byRegistry map[string]*domain.Employee

	upserts   []*domain.Employee
	updated   map[string]*domain.Employee
	deleted   []string
	deleteErr error
}

func newFakeEmployeesRepo() *fakeEmployeesRepo {
	return &fakeEmployeesRepo{
		byID:       map[string]*domain.Employee{},
		byRegistry: map[string]*domain.Employee{},
		updated:    map[string]*domain.Employee{},
	}
}

func (f *fakeEmployeesRepo) add(employee *domain.Employee) {
	f.byID[employee.EmployeeID] = employee
	f.byRegistry[employee.RegistryCode] = employee
}

func (f *fakeEmployeesRepo) GetEmployee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	if employee, ok := f.byID[employeeID]; ok {
		return employee, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEmployeesRepo) GetEmployeeByRegistryCode(ctx context.Context, registryCode string) (*domain.Employee, error) {
	if employee, ok := f.byRegistry[registryCode]; ok {
		return employee, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEmployeesRepo) UpsertEmployeeByRegistryCode(ctx context.Context, employee *domain.Employee) (bool, error) {
	f.upserts = append(f.upserts, employee)
	_, exists := f.byRegistry[employee.RegistryCode]
	f.byRegistry[employee.RegistryCode] = employee
	return !exists, nil
}

func (f *fakeEmployeesRepo) UpdateEmployee(ctx context.Context, employeeID string, employee *domain.Employee) error {
	f.updated[employeeID] = employee
	return nil
}

func (f *fakeEmployeesRepo) DeleteEmployee(ctx context.Context, employeeID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, employeeID)
	return nil
}

// fakeLinesRepo 内存线路Repository（仅覆盖导入/状态覆盖用到的方法）
type fakeLinesRepo struct {
	repository.LinesRepository

	simUpserts  []*domain.SIMCard
	lineNumbers []string
	upsertErr   error

	overrides   map[string]string
	overrideErr error
}

func newFakeLinesRepo() *fakeLinesRepo {
	return &fakeLinesRepo{overrides: map[string]string{}}
}

func (f *fakeLinesRepo) UpsertSIMCardAndLine(ctx context.Context, sim *domain.SIMCard, phoneNumber string) (string, string, bool, error) {
	if f.upsertErr != nil {
		return "", "", false, f.upsertErr
	}
	f.simUpserts = append(f.simUpserts, sim)
	phoneLineID := ""
	if phoneNumber != "" {
		f.lineNumbers = append(f.lineNumbers, phoneNumber)
		phoneLineID = "line-" + phoneNumber
	}
	return "sim-" + sim.ICCID, phoneLineID, true, nil
}

func (f *fakeLinesRepo) OverrideLineStatus(ctx context.Context, phoneLineID, status string, now time.Time) error {
	if f.overrideErr != nil {
		return f.overrideErr
	}
	f.overrides[phoneLineID] = status
	return nil
}
