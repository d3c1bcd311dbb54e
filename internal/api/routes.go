// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"voter-geo/internal/birthday"
	"voter-geo/internal/geosync"
	"voter-geo/internal/heatmap"
	"voter-geo/internal/logger"
	"voter-geo/internal/metrics"
	"voter-geo/internal/ranking"
	"voter-geo/internal/store"

	"github.com/redis/go-redis/v9"
)

// VoterSource：路由层对数据访问的最小依赖
// 背景：与 *store.Store 解耦，测试中注入内存实现即可覆盖处理器逻辑
type VoterSource interface {
	ListVoters(ctx context.Context) ([]store.VoterRecord, error)
	ListPendingGeocode(ctx context.Context, limit int) ([]store.VoterRecord, error)
	ListBirthdayPeople(ctx context.Context) ([]birthday.Person, error)
	GetCoverage(ctx context.Context) (*store.Coverage, error)
	LatestSyncRun(ctx context.Context) (*store.SyncRun, error)
	GetDailyStats(ctx context.Context) (*store.DailyStats, error)
	IncrStats(ctx context.Context, visitor string) error
}

// cacheTTL：聚合负载的缓存时长
// 约束：聚合每次全量重算，短 TTL 即可显著降压；AGG_CACHE_TTL_S 覆盖，默认 60 秒
func cacheTTL() time.Duration {
	if v := os.Getenv("AGG_CACHE_TTL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 60 * time.Second
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// cachedJSON：读透缓存辅助
// 背景：与查询接口相同的模式——缓存命中直接回放 JSON，未命中重算后写入；rc 为 nil 时直连计算
func cachedJSON(ctx context.Context, rc *redis.Client, key string, build func() (any, error)) ([]byte, error) {
	if rc != nil {
		if s, _ := rc.Get(ctx, key).Result(); s != "" {
			metrics.CacheHitsTotal.Inc()
			return []byte(s), nil
		}
		metrics.CacheMissesTotal.Inc()
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		rc.Set(ctx, key, string(b), cacheTTL())
	}
	return b, nil
}

// 文档注释：构建并返回 API 路由
// 背景：独立 ServeMux 便于在主入口挂载到 /api 前缀；聚合读接口走缓存，同步写接口显式触发。
func BuildRoutes(src VoterSource, rc *redis.Client, orch *geosync.Orchestrator) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/heatmap", func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ctx := r.Context()
		metrics.APIRequestsTotal.WithLabelValues("heatmap").Inc()
		b, err := cachedJSON(ctx, rc, "agg:heatmap", func() (any, error) {
			roster, err := src.ListVoters(ctx)
			if err != nil {
				return nil, err
			}
			tb := time.Now()
			snap := heatmap.BuildSnapshot(roster)
			metrics.SnapshotBuildMs.Observe(float64(time.Since(tb).Milliseconds()))
			return snap, nil
		})
		if err != nil {
			logger.L().Error("heatmap_error", "err", err)
			writeError(w, http.StatusInternalServerError, "aggregate failed")
			return
		}
		recordVisit(ctx, rc, src, getClientIP(r))
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write(b)
		metrics.APIDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	})

	apiMux.HandleFunc("/neighborhoods", func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ctx := r.Context()
		metrics.APIRequestsTotal.WithLabelValues("neighborhoods").Inc()
		topN := 5
		if v := r.URL.Query().Get("top"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad top")
				return
			}
			topN = n
		}
		key := "agg:neighborhoods:" + strconv.Itoa(topN)
		b, err := cachedJSON(ctx, rc, key, func() (any, error) {
			roster, err := src.ListVoters(ctx)
			if err != nil {
				return nil, err
			}
			stats := ranking.RankNeighborhoods(roster, topN)
			if stats == nil {
				stats = []ranking.NeighborhoodStat{}
			}
			return stats, nil
		})
		if err != nil {
			logger.L().Error("neighborhoods_error", "err", err)
			writeError(w, http.StatusInternalServerError, "aggregate failed")
			return
		}
		recordVisit(ctx, rc, src, getClientIP(r))
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write(b)
		metrics.APIDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	})

	apiMux.HandleFunc("/birthdays", func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ctx := r.Context()
		metrics.APIRequestsTotal.WithLabelValues("birthdays").Inc()
		window := 7
		if v := r.URL.Query().Get("window"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "bad window")
				return
			}
			window = n
		}
		asOf := time.Now()
		if v := r.URL.Query().Get("as_of"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad as_of")
				return
			}
			asOf = t
		}
		key := "agg:birthdays:" + strconv.Itoa(window) + ":" + asOf.Format("2006-01-02")
		b, err := cachedJSON(ctx, rc, key, func() (any, error) {
			roster, err := src.ListBirthdayPeople(ctx)
			if err != nil {
				return nil, err
			}
			prox, err := birthday.ComputeProximity(roster, window, asOf)
			if err != nil {
				return nil, err
			}
			if prox.Today == nil {
				prox.Today = []birthday.Entry{}
			}
			if prox.Upcoming == nil {
				prox.Upcoming = []birthday.Entry{}
			}
			return prox, nil
		})
		if err != nil {
			logger.L().Error("birthdays_error", "err", err)
			writeError(w, http.StatusInternalServerError, "aggregate failed")
			return
		}
		recordVisit(ctx, rc, src, getClientIP(r))
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write(b)
		metrics.APIDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	})

	apiMux.HandleFunc("/geocode/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		ctx := r.Context()
		metrics.APIRequestsTotal.WithLabelValues("geocode_sync").Inc()
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "bad limit")
				return
			}
			limit = n
		}
		roster, err := src.ListPendingGeocode(ctx, limit)
		if err != nil {
			logger.L().Error("sync_list_error", "err", err)
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		res, err := orch.SyncPendingAddresses(ctx, roster, limit)
		if err != nil {
			logger.L().Error("sync_error", "err", err)
			writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		// 坐标有变化则聚合缓存立即失效，避免下一次刷新读到旧点位
		// 约束：agg:* 键空间很小，Keys 扫描可接受；失效失败不影响同步结果
		if rc != nil && res.Success > 0 {
			if keys, err := rc.Keys(ctx, "agg:*").Result(); err == nil && len(keys) > 0 {
				rc.Del(ctx, keys...)
			}
		}
		writeJSON(w, res)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		metrics.APIRequestsTotal.WithLabelValues("stats").Inc()
		cov, err := src.GetCoverage(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "stats failed")
			return
		}
		m := map[string]any{
			"total_voters":   cov.Total,
			"voters_located": cov.Located,
		}
		if run, err := src.LatestSyncRun(ctx); err == nil && run != nil {
			m["last_sync"] = map[string]any{
				"started_at":  run.StartedAt,
				"processed":   run.Processed,
				"success":     run.Success,
				"failed":      run.Failed,
				"duration_ms": run.DurationMs,
			}
		}
		if d, err := src.GetDailyStats(ctx); err == nil && d != nil {
			m["today_queries"] = d.Queries
			m["today_visitors"] = d.Visitors
		}
		writeJSON(w, m)
	})

	return apiMux
}

// recordVisit：聚合读命中后递增统计；访客经布隆去重，当日首次出现才计数
func recordVisit(ctx context.Context, rc *redis.Client, src VoterSource, ip string) {
	visitor := ""
	if ip != "" {
		if first, err := visitorFirstSeen(ctx, rc, ip); err == nil && first {
			visitor = ip
		}
	}
	_ = src.IncrStats(ctx, visitor)
}
