package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/audit"
	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/metrics"
)

func newTestAllocationService(repo *fakeAllocationsRepo, authorizer *fakeAuthorizer, sink *fakeSink) *AllocationService {
	svc := NewAllocationService(repo, authorizer, sink, metrics.New(prometheus.NewRegistry()), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestAllocate_PermissionDenied(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: false}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// 权限拒绝时不触达数据库，也不发审计事件
	assert.Equal(t, 0, repo.allocateCalls)
	assert.Empty(t, sink.events)
}

func TestAllocate_AuthorizerErrorFailsClosed(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: true, err: assert.AnError}
	svc := newTestAllocationService(repo, authorizer, &fakeSink{})

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Equal(t, 0, repo.allocateCalls)
}

func TestAllocate_Success_EmitsAudit(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	allocation, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	require.NoError(t, err)
	assert.True(t, allocation.IsActive)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, audit.EventLineAllocated, event.Kind)
	assert.Equal(t, allocation.AllocationID, event.AllocationID)
	assert.Equal(t, "emp-1", event.EmployeeID)
	assert.Equal(t, "user-1", event.PrincipalID)
}

func TestAllocate_ContentionRetriesBounded(t *testing.T) {
	// 前两次锁超时，第三次成功：1次初始 + 2次重试内完成
	repo := &fakeAllocationsRepo{
		allocateErrs: []error{domain.ErrContention, domain.ErrContention, nil},
	}
	authorizer := &fakeAuthorizer{allowed: true}
	svc := newTestAllocationService(repo, authorizer, &fakeSink{})

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.allocateCalls)
}

func TestAllocate_ContentionExhausted(t *testing.T) {
	repo := &fakeAllocationsRepo{
		allocateErrs: []error{domain.ErrContention, domain.ErrContention, domain.ErrContention, domain.ErrContention},
	}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	assert.ErrorIs(t, err, domain.ErrContention)
	assert.Equal(t, 1+contentionRetries, repo.allocateCalls)
	assert.Empty(t, sink.events)
}

func TestAllocate_BusinessErrorNotRetried(t *testing.T) {
	repo := &fakeAllocationsRepo{
		allocateErrs: []error{domain.ErrCapacityExceeded},
	}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 1, repo.allocateCalls)
	assert.Empty(t, sink.events)
}

func TestAllocate_MissingFields(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: true}
	svc := newTestAllocationService(repo, authorizer, &fakeSink{})

	_, err := svc.Allocate(context.Background(), AllocateRequest{PrincipalID: "user-1"})
	assert.Error(t, err)
	assert.Equal(t, 0, authorizer.calls)
}

func TestRelease_Success_EmitsAudit(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	allocation, err := svc.Release(context.Background(), ReleaseRequest{
		AllocationID: "alloc-1",
		PrincipalID:  "user-2",
	})
	require.NoError(t, err)
	assert.False(t, allocation.IsActive)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, audit.EventLineReleased, event.Kind)
	assert.Equal(t, "alloc-1", event.AllocationID)
	require.NotNil(t, allocation.ReleasedAt)
	assert.Equal(t, *allocation.ReleasedAt, event.At)
}

func TestRelease_NotActive(t *testing.T) {
	repo := &fakeAllocationsRepo{
		releaseErrs: []error{domain.ErrNotActive},
	}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{}
	svc := newTestAllocationService(repo, authorizer, sink)

	_, err := svc.Release(context.Background(), ReleaseRequest{
		AllocationID: "alloc-1",
		PrincipalID:  "user-2",
	})
	assert.ErrorIs(t, err, domain.ErrNotActive)
	assert.Empty(t, sink.events)
}

func TestAllocate_SinkFailureDoesNotFailOperation(t *testing.T) {
	repo := &fakeAllocationsRepo{}
	authorizer := &fakeAuthorizer{allowed: true}
	sink := &fakeSink{err: assert.AnError}
	svc := newTestAllocationService(repo, authorizer, sink)

	_, err := svc.Allocate(context.Background(), AllocateRequest{
		EmployeeID:  "emp-1",
		PhoneLineID: "line-1",
		PrincipalID: "user-1",
	})
	assert.NoError(t, err)
}
