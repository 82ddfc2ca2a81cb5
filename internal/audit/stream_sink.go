package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// StreamSink 将审计事件发布到 Redis Streams（XADD）
// 下游消费者可以按消费组读取，做通知或归档
type StreamSink struct {
	client *redis.Client
	stream string
}

// NewStreamSink 创建 Redis Streams Sink
func NewStreamSink(client *redis.Client, stream string) *StreamSink {
	return &StreamSink{client: client, stream: stream}
}

var _ Sink = (*StreamSink)(nil)

// Emit 发布事件到 Stream
// 事件体序列化为 JSON 放在 data 字段，kind 单独成字段便于消费端过滤
func (s *StreamSink) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"kind":      event.Kind,
			"data":      string(payload),
			"timestamp": event.At.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}
