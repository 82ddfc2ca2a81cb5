// Package metrics 分配引擎的Prometheus指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 分配/释放操作计数
type Metrics struct {
	Allocations *prometheus.CounterVec
	Releases    *prometheus.CounterVec
}

// 操作结果标签值
const (
	ResultOK               = "ok"
	ResultPermissionDenied = "permission_denied"
	ResultCapacityExceeded = "capacity_exceeded"
	ResultAlreadyAllocated = "already_allocated"
	ResultNotAvailable     = "not_available"
	ResultNotActive        = "not_active"
	ResultContention       = "contention"
	ResultNotFound         = "not_found"
	ResultError            = "error"
)

// New 注册并返回指标集合
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lineops",
			Name:      "allocations_total",
			Help:      "Phone line allocation attempts by result.",
		}, []string{"result"}),
		Releases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lineops",
			Name:      "releases_total",
			Help:      "Phone line release attempts by result.",
		}, []string{"result"}),
	}
}
