// 包 geosync：批量地理编码同步编排，把缺坐标的选民档案提交外部提供方并回写结果
package geosync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voter-geo/internal/geocode"
	"voter-geo/internal/logger"
	"voter-geo/internal/metrics"
	"voter-geo/internal/store"
)

// ErrBadLimit：批量上限必须为正数，属于调用方契约错误
var ErrBadLimit = errors.New("geosync: limit must be positive")

// Result：一次同步的聚合计数
// 约束：Success+Failed==Processed；Processed 不超过 limit
type Result struct {
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
}

// CoordinateWriter：坐标回写的最小依赖，便于测试注入
type CoordinateWriter interface {
	UpdateCoordinate(ctx context.Context, id string, lat, lon float64) error
}

// RunRecorder：同步审计行写入；为 nil 时跳过审计
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, startedAt time.Time, processed, success, failed int, durationMs int64) error
}

// Orchestrator：同步编排器
// 背景：单次调用内每条候选至多尝试一次，失败项留待下次显式调用重试；不做内部退避循环，
// 保证一次调用的耗时可界。并发度默认 5，避免触发提供方限流。
type Orchestrator struct {
	Geocoder geocode.Provider
	Writer   CoordinateWriter
	Runs     RunRecorder
	Workers  int
	// ItemTimeout：单条地址的解析+回写时限，零值回退 10s
	ItemTimeout time.Duration
}

// composeAddress：按“街道, 社区, 城市 州, 邮编”拼接非空字段
func composeAddress(v store.VoterRecord) string {
	var parts []string
	if v.Street != "" {
		parts = append(parts, v.Street)
	}
	if v.Neighborhood != "" {
		parts = append(parts, v.Neighborhood)
	}
	cityState := strings.TrimSpace(v.City + " " + v.State)
	if cityState != "" {
		parts = append(parts, cityState)
	}
	if v.PostalCode != "" {
		parts = append(parts, v.PostalCode)
	}
	return strings.Join(parts, ", ")
}

// 文档注释：批量同步缺坐标档案
// 背景：筛选有地址且无坐标的记录，取输入顺序的稳定前缀（至多 limit 条）提交提供方；
// 解析成功即回写坐标，单条失败（未命中/瞬时错误/回写失败）只计入 Failed，从不中断整批。
// 取消语义：ctx 取消后停止派发新任务，在途任务完成后返回；Result 只覆盖已解决的条目，
// Processed 小于候选数属于合法的部分完成结果。
// 约束：limit<=0 返回 ErrBadLimit；调用方负责避免对同一窗口并发发起同步。
func (o *Orchestrator) SyncPendingAddresses(ctx context.Context, roster []store.VoterRecord, limit int) (Result, error) {
	if limit <= 0 {
		return Result{}, ErrBadLimit
	}
	startedAt := time.Now()
	metrics.SyncRunsTotal.Inc()

	var eligible []store.VoterRecord
	for _, v := range roster {
		if v.HasAddress() && !v.HasCoordinate() {
			eligible = append(eligible, v)
			if len(eligible) == limit {
				break
			}
		}
	}
	logger.L().Info("sync_begin", "eligible", len(eligible), "limit", limit)

	workers := o.Workers
	if workers <= 0 {
		workers = 5
	}
	itemTimeout := o.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = 10 * time.Second
	}

	var success, failed int64
	jobs := make(chan store.VoterRecord)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				if o.syncOne(ctx, v, itemTimeout) {
					atomic.AddInt64(&success, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

dispatch:
	for _, v := range eligible {
		if ctx.Err() != nil {
			logger.L().Warn("sync_cancelled", "err", ctx.Err())
			break
		}
		select {
		case jobs <- v:
		case <-ctx.Done():
			logger.L().Warn("sync_cancelled", "err", ctx.Err())
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	res := Result{
		Success: int(atomic.LoadInt64(&success)),
		Failed:  int(atomic.LoadInt64(&failed)),
	}
	res.Processed = res.Success + res.Failed
	dur := time.Since(startedAt).Milliseconds()
	metrics.SyncProcessedTotal.Add(float64(res.Processed))
	metrics.SyncSuccessTotal.Add(float64(res.Success))
	metrics.SyncFailedTotal.Add(float64(res.Failed))
	metrics.SyncDurationMs.Observe(float64(dur))
	if o.Runs != nil {
		_ = o.Runs.RecordSyncRun(context.WithoutCancel(ctx), startedAt, res.Processed, res.Success, res.Failed, dur)
	}
	logger.L().Info("sync_done", "processed", res.Processed, "success", res.Success, "failed", res.Failed, "duration_ms", dur)
	return res, nil
}

// syncOne：单条档案的解析与回写；返回是否成功
// 约束：提供方错误与回写错误等价对待，均视为该条失败，留待下次调用重试
func (o *Orchestrator) syncOne(ctx context.Context, v store.VoterRecord, timeout time.Duration) bool {
	addr := composeAddress(v)
	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	coord, err := o.Geocoder.Geocode(ictx, addr)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			logger.L().Debug("sync_item_not_found", "id", v.ID, "address", addr)
		} else {
			logger.L().Warn("sync_item_geocode_error", "id", v.ID, "err", err)
		}
		return false
	}
	if err := o.Writer.UpdateCoordinate(ictx, v.ID, coord.Lat, coord.Lon); err != nil {
		logger.L().Error("sync_item_persist_error", "id", v.ID, "err", err)
		return false
	}
	logger.L().Debug("sync_item_ok", "id", v.ID, "lat", coord.Lat, "lon", coord.Lon)
	return true
}
