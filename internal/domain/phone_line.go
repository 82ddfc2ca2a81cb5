package domain

import (
	"time"
)

// PhoneLine 电话线路状态
const (
	LineStatusAvailable = "AVAILABLE"
	LineStatusAllocated = "ALLOCATED"
	LineStatusSuspended = "SUSPENDED"
	LineStatusCancelled = "CANCELLED"
)

// PhoneLineStatuses 所有合法的线路状态
var PhoneLineStatuses = []string{
	LineStatusAvailable,
	LineStatusAllocated,
	LineStatusSuspended,
	LineStatusCancelled,
}

// PhoneLine 电话线路领域模型（对应 phone_lines 表）
// 不变式：status=ALLOCATED 当且仅当存在一条 is_active=true 的分配记录指向本线路
type PhoneLine struct {
	// 主键
	PhoneLineID string `db:"phone_line_id"` // UUID, PRIMARY KEY

	// 电话号码
	PhoneNumber string `db:"phone_number"` // VARCHAR(20), NOT NULL, UNIQUE

	// 绑定的SIM卡（1:1）
	SIMCardID string `db:"sim_card_id"` // UUID, NOT NULL, UNIQUE, FK -> sim_cards

	// 状态
	Status string `db:"status"` // VARCHAR(20), NOT NULL, DEFAULT 'AVAILABLE'

	// 激活时间
	ActivatedAt *time.Time `db:"activated_at"` // TIMESTAMPTZ, nullable

	// 软删除标记
	IsDeleted bool `db:"is_deleted"` // BOOLEAN, NOT NULL, DEFAULT FALSE

	// 时间
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}

// ValidLineStatus 检查是否为合法的线路状态
func ValidLineStatus(status string) bool {
	for _, s := range PhoneLineStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// AllocationOutcome 分配引擎的事务结果，用于推导线路状态
type AllocationOutcome int

const (
	// OutcomeAllocated 线路被成功分配给员工
	OutcomeAllocated AllocationOutcome = iota
	// OutcomeReleased 线路的分配被释放
	OutcomeReleased
)

// ProjectLineStatus 根据分配/释放结果推导线路的新状态
// 与分配事务同步执行，状态相对分配记录不允许出现滞后
func ProjectLineStatus(outcome AllocationOutcome) string {
	if outcome == OutcomeAllocated {
		return LineStatusAllocated
	}
	return LineStatusAvailable
}
