package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/andresouza701/lineops/internal/domain"
)

// PostgresEmployeesRepository 员工Repository实现
// 实现EmployeesRepository接口，使用domain.Employee领域模型
type PostgresEmployeesRepository struct {
	db *sql.DB
}

// NewPostgresEmployeesRepository 创建员工Repository
func NewPostgresEmployeesRepository(db *sql.DB) *PostgresEmployeesRepository {
	return &PostgresEmployeesRepository{db: db}
}

// 确保实现了接口
var _ EmployeesRepository = (*PostgresEmployeesRepository)(nil)

const employeeColumns = `
	employee_id::text,
	registry_code,
	full_name,
	corporate_email,
	team,
	status,
	is_deleted,
	created_at,
	updated_at
`

// GetEmployee 获取员工（排除软删除）
func (r *PostgresEmployeesRepository) GetEmployee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("get employee: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1 AND NOT is_deleted`,
		employeeID,
	)
	return scanEmployeeResult(row, "employee")
}

// GetEmployeeByRegistryCode 按工牌号获取员工（排除软删除）
func (r *PostgresEmployeesRepository) GetEmployeeByRegistryCode(ctx context.Context, registryCode string) (*domain.Employee, error) {
	if registryCode == "" {
		return nil, fmt.Errorf("get employee: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE registry_code = $1 AND NOT is_deleted`,
		registryCode,
	)
	return scanEmployeeResult(row, "employee")
}

// ListEmployees 查询员工列表（支持分页、过滤、搜索）
func (r *PostgresEmployeesRepository) ListEmployees(ctx context.Context, filters EmployeeFilters, page, size int) ([]*domain.Employee, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	conditions := []string{}
	args := []any{}
	argIdx := 1

	if !filters.IncludeDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filters.Status)
		argIdx++
	}
	if filters.Team != "" {
		conditions = append(conditions, fmt.Sprintf("team = $%d", argIdx))
		args = append(args, filters.Team)
		argIdx++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(full_name ILIKE $%d OR corporate_email ILIKE $%d OR registry_code ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	query := "SELECT " + employeeColumns + " FROM employees" + where +
		fmt.Sprintf(" ORDER BY full_name LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []*domain.Employee{}
	for rows.Next() {
		var employee domain.Employee
		if err := scanEmployee(rows, &employee); err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &employee)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, total, nil
}

// CreateEmployee 创建员工
func (r *PostgresEmployeesRepository) CreateEmployee(ctx context.Context, employee *domain.Employee) (string, error) {
	if employee.RegistryCode == "" || employee.FullName == "" || employee.CorporateEmail == "" {
		return "", fmt.Errorf("registry_code, full_name and corporate_email are required")
	}

	employeeID := employee.EmployeeID
	if employeeID == "" {
		employeeID = uuid.New().String()
	}
	status := employee.Status
	if status == "" {
		status = domain.EmployeeStatusInactive
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees
			(employee_id, registry_code, full_name, corporate_email, team, status, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())`,
		employeeID, employee.RegistryCode, employee.FullName, employee.CorporateEmail, employee.Team, status,
	)
	if err != nil {
		return "", mapPQError(err, "failed to create employee")
	}
	return employeeID, nil
}

// UpdateEmployee 更新员工（只更新非零值字段）
func (r *PostgresEmployeesRepository) UpdateEmployee(ctx context.Context, employeeID string, employee *domain.Employee) error {
	if employeeID == "" {
		return fmt.Errorf("update employee: %w", domain.ErrNotFound)
	}

	updates := []string{}
	args := []any{employeeID}
	argIdx := 2

	if employee.RegistryCode != "" {
		updates = append(updates, fmt.Sprintf("registry_code = $%d", argIdx))
		args = append(args, employee.RegistryCode)
		argIdx++
	}
	if employee.FullName != "" {
		updates = append(updates, fmt.Sprintf("full_name = $%d", argIdx))
		args = append(args, employee.FullName)
		argIdx++
	}
	if employee.CorporateEmail != "" {
		updates = append(updates, fmt.Sprintf("corporate_email = $%d", argIdx))
		args = append(args, employee.CorporateEmail)
		argIdx++
	}
	if employee.Team != "" {
		updates = append(updates, fmt.Sprintf("team = $%d", argIdx))
		args = append(args, employee.Team)
		argIdx++
	}
	if employee.Status != "" {
		updates = append(updates, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, employee.Status)
		argIdx++
	}
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, "updated_at = NOW()")

	result, err := r.db.ExecContext(ctx,
		"UPDATE employees SET "+strings.Join(updates, ", ")+" WHERE employee_id = $1 AND NOT is_deleted",
		args...,
	)
	if err != nil {
		return mapPQError(err, "failed to update employee")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee not found: %w", domain.ErrNotFound)
	}
	return nil
}

// UpsertEmployeeByRegistryCode 按工牌号upsert（批量导入使用）
// 已存在时更新基本信息并取消软删除
func (r *PostgresEmployeesRepository) UpsertEmployeeByRegistryCode(ctx context.Context, employee *domain.Employee) (bool, error) {
	if employee.RegistryCode == "" {
		return false, fmt.Errorf("registry_code is required")
	}

	status := employee.Status
	if status == "" {
		status = domain.EmployeeStatusInactive
	}

	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO employees
			(employee_id, registry_code, full_name, corporate_email, team, status, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
		 ON CONFLICT (registry_code)
		 DO UPDATE SET full_name = EXCLUDED.full_name,
		               corporate_email = EXCLUDED.corporate_email,
		               team = EXCLUDED.team,
		               status = EXCLUDED.status,
		               is_deleted = FALSE,
		               updated_at = NOW()
		 RETURNING (xmax = 0)`,
		uuid.New().String(), employee.RegistryCode, employee.FullName, employee.CorporateEmail, employee.Team, status,
	).Scan(&inserted)
	if err != nil {
		return false, mapPQError(err, "failed to upsert employee")
	}
	return inserted, nil
}

// DeleteEmployee 软删除员工
// 存在任何分配记录（活跃或历史）引用该员工时拒绝删除
func (r *PostgresEmployeesRepository) DeleteEmployee(ctx context.Context, employeeID string) error {
	if employeeID == "" {
		return fmt.Errorf("delete employee: %w", domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var referenced bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM line_allocations WHERE employee_id = $1)`,
		employeeID,
	).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("failed to check allocation references: %w", err)
	}
	if referenced {
		return fmt.Errorf("employee %s: %w", employeeID, domain.ErrReferencedEntity)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE employees SET is_deleted = TRUE, updated_at = NOW() WHERE employee_id = $1 AND NOT is_deleted`,
		employeeID,
	)
	if err != nil {
		return mapPQError(err, "failed to delete employee")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee not found: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func scanEmployee(row rowScanner, employee *domain.Employee) error {
	return row.Scan(
		&employee.EmployeeID,
		&employee.RegistryCode,
		&employee.FullName,
		&employee.CorporateEmail,
		&employee.Team,
		&employee.Status,
		&employee.IsDeleted,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
}

func scanEmployeeResult(row rowScanner, what string) (*domain.Employee, error) {
	var employee domain.Employee
	if err := scanEmployee(row, &employee); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &employee, nil
}
