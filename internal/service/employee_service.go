package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
)

// EmployeeService 员工生命周期
// 边界守卫：持有活跃分配的员工不能停用或删除（引擎本身不做这项校验）
type EmployeeService struct {
	employees   repository.EmployeesRepository
	allocations repository.AllocationsRepository
	logger      *zap.Logger
}

// NewEmployeeService 创建员工服务
func NewEmployeeService(employees repository.EmployeesRepository, allocations repository.AllocationsRepository, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		employees:   employees,
		allocations: allocations,
		logger:      logger,
	}
}

// GetEmployee 获取员工
func (s *EmployeeService) GetEmployee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	return s.employees.GetEmployee(ctx, employeeID)
}

// ListEmployees 查询员工列表
func (s *EmployeeService) ListEmployees(ctx context.Context, filters repository.EmployeeFilters, page, size int) ([]*domain.Employee, int, error) {
	return s.employees.ListEmployees(ctx, filters, page, size)
}

// CreateEmployee 创建员工
func (s *EmployeeService) CreateEmployee(ctx context.Context, employee *domain.Employee) (string, error) {
	if employee.Status != "" && employee.Status != domain.EmployeeStatusActive && employee.Status != domain.EmployeeStatusInactive {
		return "", fmt.Errorf("invalid employee status: %q", employee.Status)
	}
	employeeID, err := s.employees.CreateEmployee(ctx, employee)
	if err != nil {
		return "", err
	}
	s.logger.Info("employee created",
		zap.String("employee_id", employeeID),
		zap.String("registry_code", employee.RegistryCode),
	)
	return employeeID, nil
}

// UpdateEmployee 更新员工
// 状态改为 inactive 前检查活跃分配：仍持有线路的员工必须先释放
func (s *EmployeeService) UpdateEmployee(ctx context.Context, employeeID string, employee *domain.Employee) error {
	if employee.Status == domain.EmployeeStatusInactive {
		count, err := s.allocations.CountActiveByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("employee %s has %d active lines: %w",
				employeeID, count, domain.ErrEmployeeHasActiveLines)
		}
	}
	return s.employees.UpdateEmployee(ctx, employeeID, employee)
}

// DeleteEmployee 软删除员工
// 持有活跃分配时拒绝；历史分配引用由repository层以 ErrReferencedEntity 拒绝
func (s *EmployeeService) DeleteEmployee(ctx context.Context, employeeID string) error {
	count, err := s.allocations.CountActiveByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("employee %s has %d active lines: %w",
			employeeID, count, domain.ErrEmployeeHasActiveLines)
	}

	if err := s.employees.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}
	s.logger.Info("employee deleted", zap.String("employee_id", employeeID))
	return nil
}
