package repository

import (
	"context"
	"time"

	"github.com/andresouza701/lineops/internal/domain"
)

// LinesRepository 电话线路/SIM卡Repository接口
// 软删除约定与EmployeesRepository相同
type LinesRepository interface {
	// ========== PhoneLines 表操作 ==========
	GetPhoneLine(ctx context.Context, phoneLineID string) (*domain.PhoneLine, error)
	GetPhoneLineByNumber(ctx context.Context, phoneNumber string) (*domain.PhoneLine, error)
	ListPhoneLines(ctx context.Context, filters LineFilters, page, size int) ([]*domain.PhoneLine, int, error)
	CreatePhoneLine(ctx context.Context, line *domain.PhoneLine) (string, error)

	// OverrideLineStatus 手动设置线路状态（管理操作，不经过分配引擎）
	// 在事务内锁定线路行后校验：
	//   - 存在活跃分配时，禁止设置任何非 ALLOCATED 状态（domain.ErrLineStillAllocated）
	//   - 不存在活跃分配时，禁止设置 ALLOCATED（domain.ErrStatusReserved）
	OverrideLineStatus(ctx context.Context, phoneLineID, status string, now time.Time) error

	// DeletePhoneLine 软删除线路
	// 注意：存在任何分配记录引用该线路时返回 domain.ErrReferencedEntity
	DeletePhoneLine(ctx context.Context, phoneLineID string) error

	// LineStatusCounts 按状态统计线路数量（排除软删除）
	LineStatusCounts(ctx context.Context) (map[string]int, error)

	// ========== SIMCards 表操作 ==========
	GetSIMCard(ctx context.Context, simCardID string) (*domain.SIMCard, error)
	GetSIMCardByICCID(ctx context.Context, iccid string) (*domain.SIMCard, error)
	ListSIMCards(ctx context.Context, filters SIMFilters, page, size int) ([]*domain.SIMCard, int, error)
	CreateSIMCard(ctx context.Context, sim *domain.SIMCard) (string, error)

	// UpsertSIMCardAndLine 按ICCID upsert SIM卡，phoneNumber非空时一并upsert线路（批量导入使用）
	// 两次upsert在同一事务内，任一失败整行回滚
	// 返回 sim_card_id、phone_line_id（未提供号码时为空）、SIM卡是否为新建
	UpsertSIMCardAndLine(ctx context.Context, sim *domain.SIMCard, phoneNumber string) (string, string, bool, error)

	// SIMStatusCounts 按状态统计SIM卡数量（排除软删除）
	SIMStatusCounts(ctx context.Context) (map[string]int, error)
}

// LineFilters 线路查询过滤器
type LineFilters struct {
	Status string // 按status过滤
	Search string // 模糊搜索：phone_number

	IncludeDeleted bool
}

// SIMFilters SIM卡查询过滤器
type SIMFilters struct {
	Status  string // 按status过滤
	Carrier string // 按carrier过滤
	Search  string // 模糊搜索：iccid

	IncludeDeleted bool
}
