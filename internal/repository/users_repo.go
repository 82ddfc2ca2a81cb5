package repository

import (
	"context"

	"github.com/andresouza701/lineops/internal/domain"
)

// UsersRepository 系统用户Repository接口
// 分配/释放操作的权限判定读取这里的角色信息
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.SystemUser, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.SystemUser, error)
	CreateUser(ctx context.Context, user *domain.SystemUser) (string, error)
}
