package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Emit(ctx context.Context, event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestMultiSink_FanOut(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	sink := NewMultiSink(first, second)

	event := Event{
		Kind:         EventLineAllocated,
		AllocationID: "alloc-1",
		At:           time.Now(),
	}
	err := sink.Emit(context.Background(), event)
	assert.NoError(t, err)
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestMultiSink_FailureDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSink{err: errors.New("stream down")}
	healthy := &recordingSink{}
	sink := NewMultiSink(failing, healthy)

	err := sink.Emit(context.Background(), Event{Kind: EventLineReleased})
	assert.Error(t, err)
	// 后续Sink仍然收到事件
	assert.Len(t, healthy.events, 1)
}

func TestZapSink(t *testing.T) {
	sink := NewZapSink(zap.NewNop())
	assert.NoError(t, sink.Emit(context.Background(), Event{Kind: EventLineAllocated}))
}
