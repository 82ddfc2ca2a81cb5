package repository

import (
	"context"
	"time"

	"github.com/andresouza701/lineops/internal/domain"
)

// AllocationsRepository 线路分配Repository接口
// 分配引擎的事务算法在这一层实现：所有互斥通过数据库行锁（SELECT ... FOR UPDATE）
// 保证，不使用进程内锁——服务可能以多实例共享同一个数据库运行
type AllocationsRepository interface {
	// AllocateLine 将线路分配给员工（单个事务）
	// 锁定顺序固定：先锁员工行，再锁线路行，避免并发分配互相死锁
	// 校验顺序：员工活跃数上限 -> 线路排他性 -> 线路 AVAILABLE 状态
	// 可能返回：domain.ErrNotFound / ErrCapacityExceeded / ErrAlreadyAllocated /
	// ErrNotAvailable / ErrContention
	AllocateLine(ctx context.Context, employeeID, phoneLineID, allocatedBy string, now time.Time) (*domain.LineAllocation, error)

	// ReleaseLine 释放一条活跃分配（单个事务）
	// 锁定分配行及其线路行；目标已释放时返回 domain.ErrNotActive，不做任何变更
	ReleaseLine(ctx context.Context, allocationID, releasedBy string, now time.Time) (*domain.LineAllocation, error)

	// ========== 只读查询（提交后的状态，无脏读）==========
	GetAllocation(ctx context.Context, allocationID string) (*domain.LineAllocation, error)

	// ListActiveByEmployee 员工当前持有的活跃分配
	ListActiveByEmployee(ctx context.Context, employeeID string) ([]*domain.LineAllocation, error)

	// ListActiveByLine 线路当前的活跃分配（至多一条）
	ListActiveByLine(ctx context.Context, phoneLineID string) ([]*domain.LineAllocation, error)

	// ListHistoryByLine 线路的完整分配历史，按allocated_at倒序
	// from/to 为可选的时间范围过滤
	ListHistoryByLine(ctx context.Context, phoneLineID string, from, to *time.Time) ([]*domain.LineAllocation, error)

	// CountActiveByEmployee 员工活跃分配数（员工停用/删除守卫使用）
	CountActiveByEmployee(ctx context.Context, employeeID string) (int, error)
}
