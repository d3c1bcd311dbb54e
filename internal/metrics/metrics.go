package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votergeo_api_requests_total",
		Help: "Total aggregate API requests",
	}, []string{"endpoint"})
	APIDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "votergeo_api_duration_ms",
		Help:    "Aggregate API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_cache_hits_total",
		Help: "Total redis cache hits for aggregate payloads",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_cache_misses_total",
		Help: "Total redis cache misses for aggregate payloads",
	})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votergeo_geocode_requests_total",
		Help: "Total geocoding provider requests",
	}, []string{"provider"})
	GeocodeSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votergeo_geocode_success_total",
		Help: "Total geocoding provider successes",
	}, []string{"provider"})
	GeocodeFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "votergeo_geocode_fail_total",
		Help: "Total geocoding provider failures (not found or transport)",
	}, []string{"provider"})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "votergeo_geocode_duration_ms",
		Help:    "Geocoding provider call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	SyncRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_sync_runs_total",
		Help: "Total geocoding sync invocations",
	})
	SyncProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_sync_processed_total",
		Help: "Total voter records attempted by sync",
	})
	SyncSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_sync_success_total",
		Help: "Total voter records geocoded and persisted by sync",
	})
	SyncFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votergeo_sync_failed_total",
		Help: "Total voter records failed during sync",
	})
	SyncDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "votergeo_sync_duration_ms",
		Help:    "Full sync batch duration in milliseconds",
		Buckets: []float64{100, 500, 1000, 5000, 15000, 60000, 300000},
	})
	SnapshotBuildMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "votergeo_snapshot_build_ms",
		Help:    "Heatmap snapshot build duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	})
)

// 文档注释：注册所有指标并返回 /metrics 处理器
// 背景：集中注册避免分散 init 带来的重复注册风险；由主入口挂载路由。
func Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		APIRequestsTotal,
		APIDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
		GeocodeRequestsTotal,
		GeocodeSuccessTotal,
		GeocodeFailTotal,
		GeocodeDurationMs,
		SyncRunsTotal,
		SyncProcessedTotal,
		SyncSuccessTotal,
		SyncFailedTotal,
		SyncDurationMs,
		SnapshotBuildMs,
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
