package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookSink 将审计事件POST到外部收集端
type WebhookSink struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookSink 创建 Webhook Sink
func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookSink{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

var _ Sink = (*WebhookSink)(nil)

// Emit POST事件到配置的地址
func (s *WebhookSink) Emit(ctx context.Context, event Event) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("failed to post audit event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("audit webhook returned status %d", resp.StatusCode())
	}

	s.logger.Debug("audit event delivered",
		zap.String("kind", event.Kind),
		zap.String("allocation_id", event.AllocationID),
	)
	return nil
}
