package repository

import (
	"context"

	"github.com/andresouza701/lineops/internal/domain"
)

// EmployeesRepository 员工Repository接口
// 使用强类型领域模型，不使用map[string]any
// 软删除约定：默认查询排除 is_deleted=true 的行，filters.IncludeDeleted=true 时全量查询
type EmployeesRepository interface {
	// ========== 查询（单个）==========
	GetEmployee(ctx context.Context, employeeID string) (*domain.Employee, error)
	GetEmployeeByRegistryCode(ctx context.Context, registryCode string) (*domain.Employee, error)

	// ========== 查询（列表）==========
	ListEmployees(ctx context.Context, filters EmployeeFilters, page, size int) ([]*domain.Employee, int, error)

	// ========== 创建/更新 ==========
	CreateEmployee(ctx context.Context, employee *domain.Employee) (string, error)
	UpdateEmployee(ctx context.Context, employeeID string, employee *domain.Employee) error

	// UpsertEmployeeByRegistryCode 按工牌号upsert（批量导入使用）
	// 返回是否为新建记录
	UpsertEmployeeByRegistryCode(ctx context.Context, employee *domain.Employee) (bool, error)

	// ========== 删除 ==========
	// DeleteEmployee 软删除员工
	// 注意：存在任何分配记录（活跃或历史）引用该员工时返回 domain.ErrReferencedEntity
	DeleteEmployee(ctx context.Context, employeeID string) error
}

// EmployeeFilters 员工查询过滤器
type EmployeeFilters struct {
	Status string // 按status过滤 (active/inactive)
	Team   string // 按team过滤
	Search string // 模糊搜索：full_name, corporate_email, registry_code

	// IncludeDeleted 包含已软删除的行（"全部记录"查询模式）
	IncludeDeleted bool
}
