package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/andresouza701/lineops/internal/domain"
)

// PostgresUsersRepository 系统用户Repository实现
// 实现UsersRepository接口，使用domain.SystemUser领域模型
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建系统用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

// 确保实现了接口
var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	email,
	full_name,
	role,
	status,
	created_at
`

// GetUser 获取系统用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.SystemUser, error) {
	if userID == "" {
		return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM system_users WHERE user_id = $1`,
		userID,
	)
	return scanUserResult(row)
}

// GetUserByEmail 按邮箱获取系统用户
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.SystemUser, error) {
	if email == "" {
		return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM system_users WHERE email = LOWER($1)`,
		email,
	)
	return scanUserResult(row)
}

// CreateUser 创建系统用户
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.SystemUser) (string, error) {
	if user.Email == "" {
		return "", fmt.Errorf("email is required")
	}

	userID := user.UserID
	if userID == "" {
		userID = uuid.New().String()
	}
	role := user.Role
	if role == "" {
		role = domain.RoleOperator
	}
	status := user.Status
	if status == "" {
		status = domain.UserStatusActive
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO system_users (user_id, email, full_name, role, status, created_at)
		 VALUES ($1, LOWER($2), $3, $4, $5, NOW())`,
		userID, user.Email, user.FullName, role, status,
	)
	if err != nil {
		return "", mapPQError(err, "failed to create user")
	}
	return userID, nil
}

func scanUserResult(row rowScanner) (*domain.SystemUser, error) {
	var user domain.SystemUser
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.FullName,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
