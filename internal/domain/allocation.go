package domain

import (
	"time"
)

// MaxActiveAllocationsPerEmployee 每个员工同时持有的活跃线路上限
// 原系统中为硬编码常量，这里保留为具名常量而非配置项
const MaxActiveAllocationsPerEmployee = 2

// LineAllocation 线路分配记录（对应 line_allocations 表）
// 员工与线路的关联记录；释放后除释放元数据外不可再变更，历史永久保留
// 不变式：
//   - 同一线路最多存在一条 is_active=true 的记录（部分唯一索引保证）
//   - 同一员工的 is_active=true 记录数不超过 MaxActiveAllocationsPerEmployee
type LineAllocation struct {
	// 主键
	AllocationID string `db:"allocation_id"` // UUID, PRIMARY KEY

	// 关联
	EmployeeID  string `db:"employee_id"`   // UUID, NOT NULL, FK -> employees (RESTRICT)
	PhoneLineID string `db:"phone_line_id"` // UUID, NOT NULL, FK -> phone_lines (RESTRICT)

	// 分配/释放时间
	AllocatedAt time.Time  `db:"allocated_at"` // TIMESTAMPTZ, NOT NULL
	ReleasedAt  *time.Time `db:"released_at"`  // TIMESTAMPTZ, nullable

	// 操作人
	AllocatedBy string  `db:"allocated_by"` // UUID, NOT NULL, FK -> system_users
	ReleasedBy  *string `db:"released_by"`  // UUID, nullable, FK -> system_users

	// 活跃标记
	IsActive bool `db:"is_active"` // BOOLEAN, NOT NULL, DEFAULT TRUE

	// 时间
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
}
