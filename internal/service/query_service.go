package service

import (
	"context"
	"time"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
)

// QueryService 只读查询（供展示层消费）
// 全部读取已提交状态，不跨越分配/释放事务边界
type QueryService struct {
	allocations repository.AllocationsRepository
	lines       repository.LinesRepository
}

// NewQueryService 创建查询服务
func NewQueryService(allocations repository.AllocationsRepository, lines repository.LinesRepository) *QueryService {
	return &QueryService{
		allocations: allocations,
		lines:       lines,
	}
}

// ActiveAllocationsForEmployee 员工当前持有的活跃分配
func (s *QueryService) ActiveAllocationsForEmployee(ctx context.Context, employeeID string) ([]*domain.LineAllocation, error) {
	return s.allocations.ListActiveByEmployee(ctx, employeeID)
}

// ActiveAllocationsForLine 线路当前的活跃分配（排他性不变式下至多一条）
func (s *QueryService) ActiveAllocationsForLine(ctx context.Context, phoneLineID string) ([]*domain.LineAllocation, error) {
	return s.allocations.ListActiveByLine(ctx, phoneLineID)
}

// LineHistory 线路完整分配历史，按分配时间倒序，可选时间范围过滤
func (s *QueryService) LineHistory(ctx context.Context, phoneLineID string, from, to *time.Time) ([]*domain.LineAllocation, error) {
	return s.allocations.ListHistoryByLine(ctx, phoneLineID, from, to)
}

// StatusCounts 线路/SIM卡按状态的数量统计
type StatusCounts struct {
	PhoneLines map[string]int `json:"phone_lines"`
	SIMCards   map[string]int `json:"sim_cards"`
}

// CountByStatus 统计线路和SIM卡的状态分布（排除软删除）
func (s *QueryService) CountByStatus(ctx context.Context) (*StatusCounts, error) {
	lineCounts, err := s.lines.LineStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	simCounts, err := s.lines.SIMStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &StatusCounts{PhoneLines: lineCounts, SIMCards: simCounts}, nil
}
