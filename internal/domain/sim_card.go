package domain

import (
	"time"
)

// SIMCard SIM卡状态
const (
	SIMStatusAvailable = "AVAILABLE"
	SIMStatusActive    = "ACTIVE"
	SIMStatusBlocked   = "BLOCKED"
	SIMStatusCancelled = "CANCELLED"
)

// SIMCardStatuses 所有合法的SIM卡状态
var SIMCardStatuses = []string{
	SIMStatusAvailable,
	SIMStatusActive,
	SIMStatusBlocked,
	SIMStatusCancelled,
}

// SIMCard SIM卡领域模型（对应 sim_cards 表）
// 一张SIM卡最多绑定一条电话线路（phone_lines.sim_card_id UNIQUE）
type SIMCard struct {
	// 主键
	SIMCardID string `db:"sim_card_id"` // UUID, PRIMARY KEY

	// 运营商发行的卡号
	ICCID   string `db:"iccid"`   // VARCHAR(22), NOT NULL, UNIQUE
	Carrier string `db:"carrier"` // VARCHAR(100), NOT NULL

	// 状态
	Status string `db:"status"` // VARCHAR(20), NOT NULL, DEFAULT 'AVAILABLE'

	// 激活时间
	ActivatedAt *time.Time `db:"activated_at"` // TIMESTAMPTZ, nullable

	// 软删除标记
	IsDeleted bool `db:"is_deleted"` // BOOLEAN, NOT NULL, DEFAULT FALSE

	// 时间
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}

// ValidSIMStatus 检查是否为合法的SIM卡状态
func ValidSIMStatus(status string) bool {
	for _, s := range SIMCardStatuses {
		if s == status {
			return true
		}
	}
	return false
}
