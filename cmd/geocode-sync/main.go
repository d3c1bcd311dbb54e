// 离线批量地理编码任务：从数据库取待编码档案，按限流节奏提交外部提供方并回写坐标
// 背景：与服务内的夜间调度等价，供 cron/手工触发使用；进程退出码反映执行结果
package main

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"voter-geo/internal/geocode"
	"voter-geo/internal/geosync"
	"voter-geo/internal/logger"
	"voter-geo/internal/migrate"
	"voter-geo/internal/store"
	"voter-geo/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：简单令牌桶限流（每分钟）
// 背景：公共地理编码实例受配额限制，控制每分钟最大请求数；超出时阻塞等待下一分钟刷新。
type minuteLimiter struct {
	capacity int
	used     int
	lastMin  int64
	mu       sync.Mutex
}

func (ml *minuteLimiter) allow() bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	nowMin := time.Now().Unix() / 60
	if ml.lastMin != nowMin {
		ml.lastMin = nowMin
		ml.used = 0
	}
	if ml.used < ml.capacity {
		ml.used++
		return true
	}
	return false
}

// limitedProvider：给提供方套上每分钟限流；超额时轮询等待
type limitedProvider struct {
	inner   geocode.Provider
	limiter *minuteLimiter
}

func (p *limitedProvider) Name() string { return p.inner.Name() }

func (p *limitedProvider) Geocode(ctx context.Context, address string) (*geocode.Coordinate, error) {
	for !p.limiter.allow() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return p.inner.Geocode(ctx, address)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	l.Info("geocode_sync_start")

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	limit := envInt("SYNC_LIMIT", 50)
	workers := envInt("SYNC_WORKERS", 5)
	ratePerMin := envInt("GEOCODE_RATE_LIMIT_PER_MIN", 60)
	timeoutMin := envInt("SYNC_TIMEOUT_MIN", 30)

	provider := &limitedProvider{
		inner:   geocode.NewClientFromEnv(),
		limiter: &minuteLimiter{capacity: ratePerMin},
	}
	orch := &geosync.Orchestrator{Geocoder: provider, Writer: st, Runs: st, Workers: workers}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMin)*time.Minute)
	defer cancel()
	roster, err := st.ListPendingGeocode(ctx, limit)
	if err != nil {
		l.Error("pending_list_error", "err", err)
		os.Exit(1)
	}
	res, err := orch.SyncPendingAddresses(ctx, roster, limit)
	if err != nil {
		l.Error("sync_error", "err", err)
		os.Exit(1)
	}
	l.Info("geocode_sync_done", "processed", res.Processed, "success", res.Success, "failed", res.Failed)
}
