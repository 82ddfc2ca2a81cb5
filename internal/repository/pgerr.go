package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/andresouza701/lineops/internal/domain"
)

// PostgreSQL错误码
const (
	pgLockNotAvailable    = "55P03" // lock_timeout 超时
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// mapPQError 将PostgreSQL错误码映射为领域错误种类
// 行锁等待超时 -> ErrContention（可重试）
// 外键约束违反 -> ErrReferencedEntity
// 活跃分配部分唯一索引冲突 -> ErrAlreadyAllocated（并发插入的兜底，正常路径在锁内检查）
func mapPQError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgLockNotAvailable:
			return fmt.Errorf("%s: %w", op, domain.ErrContention)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrReferencedEntity)
		case pgUniqueViolation:
			if pqErr.Constraint == "idx_line_allocations_active_line" {
				return fmt.Errorf("%s: %w", op, domain.ErrAlreadyAllocated)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
