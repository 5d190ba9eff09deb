// Package metrics 暴露在线打分服务的 Prometheus 指标。
// 指标只在在线链路采集，离线 pipeline 不产指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankRequests 按结果状态（ok / error / invalid）计数排序请求。
	RankRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_requests_total",
		Help: "Total number of rank requests by status.",
	}, []string{"status"})

	// RankDuration 观测单次排序请求的端到端耗时。
	RankDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rank_request_duration_seconds",
		Help:    "Latency of rank requests in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	})

	// ActiveRequests 是在途排序请求数。
	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rank_active_requests",
		Help: "Number of rank requests currently in flight.",
	})

	modelVersion = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "model_version_info",
		Help: "Currently loaded model version (value is always 1).",
	}, []string{"version"})
)

// SetModelVersion 记录当前加载的模型版本。info 风格：value 恒为 1，
// 换版本时先 Reset 再置位，保证任一时刻只有一个版本序列。
func SetModelVersion(version string) {
	modelVersion.Reset()
	modelVersion.WithLabelValues(version).Set(1)
}
