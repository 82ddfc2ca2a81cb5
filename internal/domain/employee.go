package domain

import (
	"time"
)

// Employee 员工状态
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// Employee 员工领域模型（对应 employees 表）
// 软删除：is_deleted=true 的行默认不出现在查询结果中
type Employee struct {
	// 主键
	EmployeeID string `db:"employee_id"` // UUID, PRIMARY KEY

	// 业务编号（工牌号，机构内唯一）
	RegistryCode string `db:"registry_code"` // VARCHAR(50), NOT NULL, UNIQUE

	// 基本信息
	FullName       string `db:"full_name"`       // VARCHAR(255), NOT NULL
	CorporateEmail string `db:"corporate_email"` // VARCHAR(255), NOT NULL, UNIQUE
	Team           string `db:"team"`            // VARCHAR(100), NOT NULL（所属团队/单位）

	// 状态
	Status string `db:"status"` // VARCHAR(10), NOT NULL, DEFAULT 'inactive' (active/inactive)

	// 软删除标记
	IsDeleted bool `db:"is_deleted"` // BOOLEAN, NOT NULL, DEFAULT FALSE

	// 时间
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
