package domain

import (
	"errors"
)

// 分配/释放的业务错误种类
// 调用方用 errors.Is 区分并渲染不同的提示信息
var (
	// ErrPermissionDenied 操作主体没有分配/释放权限
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCapacityExceeded 员工已达到活跃线路上限
	ErrCapacityExceeded = errors.New("employee at active allocation limit")

	// ErrAlreadyAllocated 线路已存在活跃分配
	ErrAlreadyAllocated = errors.New("phone line already allocated")

	// ErrNotAvailable 线路不在 AVAILABLE 状态
	ErrNotAvailable = errors.New("phone line not available")

	// ErrNotActive 释放目标已不是活跃分配（重复释放）
	ErrNotActive = errors.New("allocation not active")

	// ErrContention 锁等待超时，可有限次重试
	ErrContention = errors.New("lock contention, retry later")

	// ErrReferencedEntity 实体仍被分配记录引用，禁止删除
	ErrReferencedEntity = errors.New("entity referenced by allocations")

	// ErrNotFound 记录不存在（或已被软删除）
	ErrNotFound = errors.New("record not found")

	// ErrLineStillAllocated 线路仍有活跃分配，禁止手动改为非 ALLOCATED 状态
	ErrLineStillAllocated = errors.New("phone line has an active allocation")

	// ErrStatusReserved ALLOCATED 状态只能由分配引擎设置
	ErrStatusReserved = errors.New("ALLOCATED status is set by the allocation engine only")

	// ErrEmployeeHasActiveLines 员工仍持有活跃线路，禁止停用或删除
	ErrEmployeeHasActiveLines = errors.New("employee still holds active allocations")
)
