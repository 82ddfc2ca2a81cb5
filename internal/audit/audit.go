// Package audit 记录分配/释放事件，供观测使用
// 事件在引擎事务提交之后发出（绝不提前，避免记录被回滚的操作）；
// 发布失败只记日志，不影响已提交的业务结果
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// 事件种类
const (
	EventLineAllocated = "line.allocated"
	EventLineReleased  = "line.released"
)

// Event 审计事件
type Event struct {
	Kind         string    `json:"kind"`
	AllocationID string    `json:"allocation_id"`
	EmployeeID   string    `json:"employee_id"`
	PhoneLineID  string    `json:"phone_line_id"`
	PrincipalID  string    `json:"principal_id"`
	At           time.Time `json:"at"`
}

// Sink 审计事件接收端
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// ZapSink 结构化日志Sink（始终启用）
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink 创建日志Sink
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

var _ Sink = (*ZapSink)(nil)

// Emit 以结构化字段写出事件
func (s *ZapSink) Emit(_ context.Context, event Event) error {
	s.logger.Info("audit event",
		zap.String("kind", event.Kind),
		zap.String("allocation_id", event.AllocationID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("phone_line_id", event.PhoneLineID),
		zap.String("principal_id", event.PrincipalID),
		zap.Time("at", event.At),
	)
	return nil
}

// MultiSink 将事件扇出到多个Sink
// 任一Sink失败不阻止其余Sink，返回第一个错误
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink 创建扇出Sink
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

var _ Sink = (*MultiSink)(nil)

// Emit 依次发布到每个Sink
func (s *MultiSink) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
