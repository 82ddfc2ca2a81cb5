package service

import (
	"context"

	"github.com/andresouza701/lineops/internal/repository"
)

// Authorizer 操作权限判定
// 分配引擎在任何变更语句执行前调用；判定失败或出错一律视为无权限（fail closed）
type Authorizer interface {
	// CanManageAllocations 主体是否可以执行分配/释放/状态覆盖
	CanManageAllocations(ctx context.Context, principalID string) (bool, error)
}

// RoleAuthorizer 基于system_users角色的权限判定
// 只有 admin 角色（且状态为active）可以管理分配
type RoleAuthorizer struct {
	users repository.UsersRepository
}

// NewRoleAuthorizer 创建角色权限判定器
func NewRoleAuthorizer(users repository.UsersRepository) *RoleAuthorizer {
	return &RoleAuthorizer{users: users}
}

var _ Authorizer = (*RoleAuthorizer)(nil)

// CanManageAllocations 查询主体角色
func (a *RoleAuthorizer) CanManageAllocations(ctx context.Context, principalID string) (bool, error) {
	if principalID == "" {
		return false, nil
	}
	user, err := a.users.GetUser(ctx, principalID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}
