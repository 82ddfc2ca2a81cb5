package domain

import (
	"time"
)

// SystemUser 角色
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// SystemUser 状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// SystemUser 系统用户（操作主体，对应 system_users 表）
// 分配/释放操作的执行人；只有 admin 角色可以执行分配和释放
type SystemUser struct {
	// 主键
	UserID string `db:"user_id"` // UUID, PRIMARY KEY

	// 登录邮箱
	Email string `db:"email"` // VARCHAR(255), NOT NULL, UNIQUE

	// 基本信息
	FullName string `db:"full_name"` // VARCHAR(255), NOT NULL

	// 角色
	Role string `db:"role"` // VARCHAR(20), NOT NULL, DEFAULT 'operator' (admin/operator)

	// 状态
	Status string `db:"status"` // VARCHAR(20), NOT NULL, DEFAULT 'active'

	// 时间
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
}

// IsAdmin 是否具有管理员角色
func (u *SystemUser) IsAdmin() bool {
	return u.Role == RoleAdmin && u.Status == UserStatusActive
}
