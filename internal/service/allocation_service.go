package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/audit"
	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/metrics"
	"github.com/andresouza701/lineops/internal/repository"
)

// contentionRetries 锁等待超时（ErrContention）的额外重试次数
// 其余错误种类一律不自动重试，原样返回调用方
const contentionRetries = 2

// AllocationService 线路分配引擎
// line_allocations 表的唯一写入方；互斥依赖repository层的数据库行锁，
// 本层负责权限判定、有限重试、审计和指标
type AllocationService struct {
	allocations repository.AllocationsRepository
	authorizer  Authorizer
	sink        audit.Sink
	metrics     *metrics.Metrics
	logger      *zap.Logger

	// now 时间源，测试中可替换
	now func() time.Time
}

// NewAllocationService 创建分配引擎
func NewAllocationService(
	allocations repository.AllocationsRepository,
	authorizer Authorizer,
	sink audit.Sink,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		allocations: allocations,
		authorizer:  authorizer,
		sink:        sink,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// AllocateRequest 分配请求
// 传实体ID而非对象快照：引擎在行锁下重读当前状态
type AllocateRequest struct {
	EmployeeID  string
	PhoneLineID string
	PrincipalID string
}

// ReleaseRequest 释放请求
type ReleaseRequest struct {
	AllocationID string
	PrincipalID  string
}

// Allocate 将线路分配给员工
// 失败时无任何部分状态残留；审计事件仅在事务提交后发出
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*domain.LineAllocation, error) {
	if req.EmployeeID == "" {
		return nil, fmt.Errorf("employee_id is required")
	}
	if req.PhoneLineID == "" {
		return nil, fmt.Errorf("phone_line_id is required")
	}

	if err := s.authorize(ctx, req.PrincipalID); err != nil {
		s.metrics.Allocations.WithLabelValues(metrics.ResultPermissionDenied).Inc()
		return nil, err
	}

	var allocation *domain.LineAllocation
	var err error
	for attempt := 0; ; attempt++ {
		allocation, err = s.allocations.AllocateLine(ctx, req.EmployeeID, req.PhoneLineID, req.PrincipalID, s.now())
		if err == nil || !errors.Is(err, domain.ErrContention) || attempt >= contentionRetries {
			break
		}
		s.logger.Warn("allocation hit lock contention, retrying",
			zap.String("employee_id", req.EmployeeID),
			zap.String("phone_line_id", req.PhoneLineID),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		s.metrics.Allocations.WithLabelValues(resultLabel(err)).Inc()
		s.logger.Warn("allocation failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("phone_line_id", req.PhoneLineID),
			zap.String("principal_id", req.PrincipalID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.Allocations.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("phone line allocated",
		zap.String("allocation_id", allocation.AllocationID),
		zap.String("employee_id", allocation.EmployeeID),
		zap.String("phone_line_id", allocation.PhoneLineID),
		zap.String("principal_id", req.PrincipalID),
	)
	s.emit(ctx, audit.Event{
		Kind:         audit.EventLineAllocated,
		AllocationID: allocation.AllocationID,
		EmployeeID:   allocation.EmployeeID,
		PhoneLineID:  allocation.PhoneLineID,
		PrincipalID:  req.PrincipalID,
		At:           allocation.AllocatedAt,
	})
	return allocation, nil
}

// Release 释放一条活跃分配
// 重复释放返回 domain.ErrNotActive，不静默成功
func (s *AllocationService) Release(ctx context.Context, req ReleaseRequest) (*domain.LineAllocation, error) {
	if req.AllocationID == "" {
		return nil, fmt.Errorf("allocation_id is required")
	}

	if err := s.authorize(ctx, req.PrincipalID); err != nil {
		s.metrics.Releases.WithLabelValues(metrics.ResultPermissionDenied).Inc()
		return nil, err
	}

	var allocation *domain.LineAllocation
	var err error
	for attempt := 0; ; attempt++ {
		allocation, err = s.allocations.ReleaseLine(ctx, req.AllocationID, req.PrincipalID, s.now())
		if err == nil || !errors.Is(err, domain.ErrContention) || attempt >= contentionRetries {
			break
		}
		s.logger.Warn("release hit lock contention, retrying",
			zap.String("allocation_id", req.AllocationID),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		s.metrics.Releases.WithLabelValues(resultLabel(err)).Inc()
		s.logger.Warn("release failed",
			zap.String("allocation_id", req.AllocationID),
			zap.String("principal_id", req.PrincipalID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.Releases.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("phone line released",
		zap.String("allocation_id", allocation.AllocationID),
		zap.String("phone_line_id", allocation.PhoneLineID),
		zap.String("principal_id", req.PrincipalID),
	)
	at := allocation.AllocatedAt
	if allocation.ReleasedAt != nil {
		at = *allocation.ReleasedAt
	}
	s.emit(ctx, audit.Event{
		Kind:         audit.EventLineReleased,
		AllocationID: allocation.AllocationID,
		EmployeeID:   allocation.EmployeeID,
		PhoneLineID:  allocation.PhoneLineID,
		PrincipalID:  req.PrincipalID,
		At:           at,
	})
	return allocation, nil
}

// authorize 权限门：判定出错或无权限一律返回 ErrPermissionDenied
func (s *AllocationService) authorize(ctx context.Context, principalID string) error {
	allowed, err := s.authorizer.CanManageAllocations(ctx, principalID)
	if err != nil {
		s.logger.Warn("authorization check failed",
			zap.String("principal_id", principalID),
			zap.Error(err),
		)
		return fmt.Errorf("principal %s: %w", principalID, domain.ErrPermissionDenied)
	}
	if !allowed {
		return fmt.Errorf("principal %s: %w", principalID, domain.ErrPermissionDenied)
	}
	return nil
}

// emit 审计发布失败只记日志，不影响已提交的业务结果
func (s *AllocationService) emit(ctx context.Context, event audit.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Emit(ctx, event); err != nil {
		s.logger.Error("failed to emit audit event",
			zap.String("kind", event.Kind),
			zap.String("allocation_id", event.AllocationID),
			zap.Error(err),
		)
	}
}

// resultLabel 错误种类到指标标签
func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return metrics.ResultCapacityExceeded
	case errors.Is(err, domain.ErrAlreadyAllocated):
		return metrics.ResultAlreadyAllocated
	case errors.Is(err, domain.ErrNotAvailable):
		return metrics.ResultNotAvailable
	case errors.Is(err, domain.ErrNotActive):
		return metrics.ResultNotActive
	case errors.Is(err, domain.ErrContention):
		return metrics.ResultContention
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
