package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andresouza701/lineops/internal/domain"
)

// PostgresAllocationsRepository 线路分配Repository实现
// 实现AllocationsRepository接口，使用domain.LineAllocation领域模型
// 并发正确性完全依赖数据库行锁：同一线路/同一员工的并发分配在 FOR UPDATE 上串行化
type PostgresAllocationsRepository struct {
	db *sql.DB

	// lockTimeout 事务内的行锁等待上限（SET LOCAL lock_timeout）
	lockTimeout time.Duration
}

// NewPostgresAllocationsRepository 创建线路分配Repository
func NewPostgresAllocationsRepository(db *sql.DB, lockTimeout time.Duration) *PostgresAllocationsRepository {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &PostgresAllocationsRepository{db: db, lockTimeout: lockTimeout}
}

// 确保实现了接口
var _ AllocationsRepository = (*PostgresAllocationsRepository)(nil)

const allocationColumns = `
	allocation_id::text,
	employee_id::text,
	phone_line_id::text,
	allocated_at,
	released_at,
	allocated_by::text,
	released_by::text,
	is_active,
	created_at
`

// setLockTimeout 在当前事务内设置行锁等待上限
// SET LOCAL 不支持参数占位符，超时值来自配置而非外部输入
func (r *PostgresAllocationsRepository) setLockTimeout(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to set lock_timeout: %w", err)
	}
	return nil
}

// AllocateLine 将线路分配给员工
// 锁定顺序固定为 员工行 -> 线路行；所有校验在持锁后的一致读上进行
func (r *PostgresAllocationsRepository) AllocateLine(ctx context.Context, employeeID, phoneLineID, allocatedBy string, now time.Time) (*domain.LineAllocation, error) {
	if employeeID == "" || phoneLineID == "" || allocatedBy == "" {
		return nil, fmt.Errorf("allocate line: %w", domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return nil, err
	}

	// 1. 锁员工行（不信任调用方快照，持锁重读当前状态）
	var employeeDeleted bool
	var employeeStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status, is_deleted FROM employees WHERE employee_id = $1 FOR UPDATE`,
		employeeID,
	).Scan(&employeeStatus, &employeeDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee not found: %w", domain.ErrNotFound)
		}
		return nil, mapPQError(err, "failed to lock employee")
	}
	if employeeDeleted {
		return nil, fmt.Errorf("employee is deleted: %w", domain.ErrNotFound)
	}

	// 2. 锁线路行
	var lineDeleted bool
	var lineStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status, is_deleted FROM phone_lines WHERE phone_line_id = $1 FOR UPDATE`,
		phoneLineID,
	).Scan(&lineStatus, &lineDeleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("phone line not found: %w", domain.ErrNotFound)
		}
		return nil, mapPQError(err, "failed to lock phone line")
	}
	if lineDeleted {
		return nil, fmt.Errorf("phone line is deleted: %w", domain.ErrNotFound)
	}

	// 3. 员工活跃分配数上限
	var activeCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM line_allocations WHERE employee_id = $1 AND is_active`,
		employeeID,
	).Scan(&activeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count active allocations: %w", err)
	}
	if activeCount >= domain.MaxActiveAllocationsPerEmployee {
		return nil, fmt.Errorf("employee %s has %d active lines: %w",
			employeeID, activeCount, domain.ErrCapacityExceeded)
	}

	// 4. 线路排他性：已有活跃分配则拒绝（先于AVAILABLE检查，两者同时不满足时报排他性错误）
	var alreadyAllocated bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM line_allocations WHERE phone_line_id = $1 AND is_active)`,
		phoneLineID,
	).Scan(&alreadyAllocated)
	if err != nil {
		return nil, fmt.Errorf("failed to check active allocation: %w", err)
	}
	if alreadyAllocated {
		return nil, fmt.Errorf("phone line %s: %w", phoneLineID, domain.ErrAlreadyAllocated)
	}

	// 5. 线路必须处于 AVAILABLE 状态
	if lineStatus != domain.LineStatusAvailable {
		return nil, fmt.Errorf("phone line %s status is %s: %w",
			phoneLineID, lineStatus, domain.ErrNotAvailable)
	}

	// 6. 创建分配记录
	allocation := &domain.LineAllocation{
		AllocationID: uuid.New().String(),
		EmployeeID:   employeeID,
		PhoneLineID:  phoneLineID,
		AllocatedAt:  now,
		AllocatedBy:  allocatedBy,
		IsActive:     true,
		CreatedAt:    now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO line_allocations
			(allocation_id, employee_id, phone_line_id, allocated_at, allocated_by, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)`,
		allocation.AllocationID, employeeID, phoneLineID, now, allocatedBy, now,
	)
	if err != nil {
		return nil, mapPQError(err, "failed to insert allocation")
	}

	// 7. 线路状态流转（与分配记录同一事务，状态不允许滞后）
	_, err = tx.ExecContext(ctx,
		`UPDATE phone_lines SET status = $1, updated_at = $2 WHERE phone_line_id = $3`,
		domain.ProjectLineStatus(domain.OutcomeAllocated), now, phoneLineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update phone line status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapPQError(err, "failed to commit allocation")
	}
	return allocation, nil
}

// ReleaseLine 释放一条活跃分配
// 重复释放不静默成功：目标已释放时返回 domain.ErrNotActive
func (r *PostgresAllocationsRepository) ReleaseLine(ctx context.Context, allocationID, releasedBy string, now time.Time) (*domain.LineAllocation, error) {
	if allocationID == "" || releasedBy == "" {
		return nil, fmt.Errorf("release line: %w", domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return nil, err
	}

	// 1. 锁分配行
	var allocation domain.LineAllocation
	var releasedAt sql.NullTime
	var prevReleasedBy sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM line_allocations WHERE allocation_id = $1 FOR UPDATE`,
		allocationID,
	).Scan(
		&allocation.AllocationID,
		&allocation.EmployeeID,
		&allocation.PhoneLineID,
		&allocation.AllocatedAt,
		&releasedAt,
		&allocation.AllocatedBy,
		&prevReleasedBy,
		&allocation.IsActive,
		&allocation.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("allocation not found: %w", domain.ErrNotFound)
		}
		return nil, mapPQError(err, "failed to lock allocation")
	}
	if !allocation.IsActive {
		return nil, fmt.Errorf("allocation %s: %w", allocationID, domain.ErrNotActive)
	}

	// 2. 锁线路行
	var lineStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM phone_lines WHERE phone_line_id = $1 FOR UPDATE`,
		allocation.PhoneLineID,
	).Scan(&lineStatus)
	if err != nil {
		return nil, mapPQError(err, "failed to lock phone line")
	}

	// 3. 写入释放元数据
	_, err = tx.ExecContext(ctx,
		`UPDATE line_allocations
		 SET released_at = $1, is_active = FALSE, released_by = $2
		 WHERE allocation_id = $3`,
		now, releasedBy, allocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to release allocation: %w", err)
	}

	// 4. 线路状态流转
	_, err = tx.ExecContext(ctx,
		`UPDATE phone_lines SET status = $1, updated_at = $2 WHERE phone_line_id = $3`,
		domain.ProjectLineStatus(domain.OutcomeReleased), now, allocation.PhoneLineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update phone line status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapPQError(err, "failed to commit release")
	}

	allocation.IsActive = false
	allocation.ReleasedAt = &now
	allocation.ReleasedBy = &releasedBy
	return &allocation, nil
}

// GetAllocation 获取单条分配记录
func (r *PostgresAllocationsRepository) GetAllocation(ctx context.Context, allocationID string) (*domain.LineAllocation, error) {
	if allocationID == "" {
		return nil, fmt.Errorf("get allocation: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM line_allocations WHERE allocation_id = $1`,
		allocationID,
	)
	allocation, err := scanAllocation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("allocation not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return allocation, nil
}

// ListActiveByEmployee 员工当前持有的活跃分配
func (r *PostgresAllocationsRepository) ListActiveByEmployee(ctx context.Context, employeeID string) ([]*domain.LineAllocation, error) {
	return r.listAllocations(ctx,
		`SELECT `+allocationColumns+`
		 FROM line_allocations
		 WHERE employee_id = $1 AND is_active
		 ORDER BY allocated_at DESC`,
		employeeID,
	)
}

// ListActiveByLine 线路当前的活跃分配
// 排他性不变式下至多返回一条
func (r *PostgresAllocationsRepository) ListActiveByLine(ctx context.Context, phoneLineID string) ([]*domain.LineAllocation, error) {
	return r.listAllocations(ctx,
		`SELECT `+allocationColumns+`
		 FROM line_allocations
		 WHERE phone_line_id = $1 AND is_active
		 ORDER BY allocated_at DESC`,
		phoneLineID,
	)
}

// ListHistoryByLine 线路完整分配历史，按allocated_at倒序
func (r *PostgresAllocationsRepository) ListHistoryByLine(ctx context.Context, phoneLineID string, from, to *time.Time) ([]*domain.LineAllocation, error) {
	query := `SELECT ` + allocationColumns + `
		 FROM line_allocations
		 WHERE phone_line_id = $1`
	args := []any{phoneLineID}
	argIdx := 2

	if from != nil {
		query += fmt.Sprintf(" AND allocated_at >= $%d", argIdx)
		args = append(args, *from)
		argIdx++
	}
	if to != nil {
		query += fmt.Sprintf(" AND allocated_at <= $%d", argIdx)
		args = append(args, *to)
		argIdx++
	}
	query += " ORDER BY allocated_at DESC"

	return r.listAllocations(ctx, query, args...)
}

// CountActiveByEmployee 员工活跃分配数
func (r *PostgresAllocationsRepository) CountActiveByEmployee(ctx context.Context, employeeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM line_allocations WHERE employee_id = $1 AND is_active`,
		employeeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active allocations: %w", err)
	}
	return count, nil
}

func (r *PostgresAllocationsRepository) listAllocations(ctx context.Context, query string, args ...any) ([]*domain.LineAllocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	allocations := []*domain.LineAllocation{}
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return allocations, nil
}

// rowScanner QueryRow和Rows共用的Scan接口
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row rowScanner) (*domain.LineAllocation, error) {
	var allocation domain.LineAllocation
	var releasedAt sql.NullTime
	var releasedBy sql.NullString

	err := row.Scan(
		&allocation.AllocationID,
		&allocation.EmployeeID,
		&allocation.PhoneLineID,
		&allocation.AllocatedAt,
		&releasedAt,
		&allocation.AllocatedBy,
		&releasedBy,
		&allocation.IsActive,
		&allocation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if releasedAt.Valid {
		t := releasedAt.Time
		allocation.ReleasedAt = &t
	}
	if releasedBy.Valid {
		s := releasedBy.String
		allocation.ReleasedBy = &s
	}
	return &allocation, nil
}
