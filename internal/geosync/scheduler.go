// 调度每日夜间的地理编码同步任务，运行在服务进程内的后台协程
package geosync

import (
	"context"
	"os"
	"strconv"
	"time"

	"voter-geo/internal/logger"
	"voter-geo/internal/store"
)

// nextDailyAt：计算下一次指定整点的时间点
// 约束：基于传入时区 loc 与整点 hour；当日已过则顺延到次日
func nextDailyAt(now time.Time, loc *time.Location, hour int) time.Time {
	n := now.In(loc)
	t := time.Date(n.Year(), n.Month(), n.Day(), hour, 0, 0, 0, loc)
	if !t.After(n) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// StartNightly：每日在配置时区的配置整点对待编码档案发起一次同步
// 背景：选民登记多在白天发生，夜间批量补坐标避开接口高峰；错误仅记录日志，调度继续。
// 约束：SYNC_HOUR 覆盖小时（整数，默认 3），SYNC_TZ 覆盖时区（默认 America/Sao_Paulo），
// SYNC_LIMIT 覆盖单次批量上限（默认 50）；运行于后台协程，进程退出时随之终止。
func StartNightly(st *store.Store, orch *Orchestrator) {
	l := logger.L()
	tz := os.Getenv("SYNC_TZ")
	if tz == "" {
		tz = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		l.Error("sync_tz_error", "tz", tz, "err", err)
		loc = time.UTC
	}
	hour := 3
	if h := os.Getenv("SYNC_HOUR"); h != "" {
		if n, err := strconv.Atoi(h); err == nil && n >= 0 && n <= 23 {
			hour = n
		}
	}
	limit := 50
	if v := os.Getenv("SYNC_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	next := nextDailyAt(time.Now(), loc, hour)
	go func() {
		for {
			time.Sleep(time.Until(next))
			l.Info("sync_scheduled_start", "at", next)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			roster, err := st.ListPendingGeocode(ctx, limit)
			if err != nil {
				l.Error("sync_scheduled_list_error", "err", err)
			} else if _, err := orch.SyncPendingAddresses(ctx, roster, limit); err != nil {
				l.Error("sync_scheduled_error", "err", err)
			}
			cancel()
			next = next.AddDate(0, 0, 1)
		}
	}()
}
