package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
)

// LineStatusService 线路状态的手动覆盖（管理操作，不经过分配引擎）
// ALLOCATED 状态只能由分配引擎产生；存在活跃分配的线路不允许改为其它状态
type LineStatusService struct {
	lines      repository.LinesRepository
	authorizer Authorizer
	logger     *zap.Logger

	now func() time.Time
}

// NewLineStatusService 创建线路状态服务
func NewLineStatusService(lines repository.LinesRepository, authorizer Authorizer, logger *zap.Logger) *LineStatusService {
	return &LineStatusService{
		lines:      lines,
		authorizer: authorizer,
		logger:     logger,
		now:        time.Now,
	}
}

// OverrideStatusRequest 状态覆盖请求
type OverrideStatusRequest struct {
	PhoneLineID string
	Status      string
	PrincipalID string
}

// OverrideStatus 手动设置线路状态（如 SUSPENDED/CANCELLED）
func (s *LineStatusService) OverrideStatus(ctx context.Context, req OverrideStatusRequest) error {
	if req.PhoneLineID == "" {
		return fmt.Errorf("phone_line_id is required")
	}
	if !domain.ValidLineStatus(req.Status) {
		return fmt.Errorf("invalid phone line status: %q", req.Status)
	}

	allowed, err := s.authorizer.CanManageAllocations(ctx, req.PrincipalID)
	if err != nil || !allowed {
		return fmt.Errorf("principal %s: %w", req.PrincipalID, domain.ErrPermissionDenied)
	}

	if err := s.lines.OverrideLineStatus(ctx, req.PhoneLineID, req.Status, s.now()); err != nil {
		return err
	}

	s.logger.Info("phone line status overridden",
		zap.String("phone_line_id", req.PhoneLineID),
		zap.String("status", req.Status),
		zap.String("principal_id", req.PrincipalID),
	)
	return nil
}
