package store

import (
	"context"
	"database/sql"
	"time"

	"voter-geo/internal/logger"
)

// SyncRun：一次地理编码同步的审计行
type SyncRun struct {
	ID         int64
	StartedAt  time.Time
	Processed  int
	Success    int
	Failed     int
	DurationMs int64
}

// RecordSyncRun：写入同步审计行
// 背景：保留每次批量同步的计数与耗时，供 /stats 与巡检查询；失败不影响同步结果本身
func (s *Store) RecordSyncRun(ctx context.Context, startedAt time.Time, processed, success, failed int, durationMs int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO _voter_sync_runs(started_at, processed, success, failed, duration_ms)
         VALUES($1,$2,$3,$4,$5)`,
		startedAt, processed, success, failed, durationMs)
	if err != nil {
		logger.L().Error("sync_run_record_error", "err", err)
	}
	return err
}

// LatestSyncRun：读取最近一次同步审计行；无记录时返回 nil
func (s *Store) LatestSyncRun(ctx context.Context) (*SyncRun, error) {
	var r SyncRun
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, processed, success, failed, duration_ms
         FROM _voter_sync_runs ORDER BY id DESC LIMIT 1`)
	if err := row.Scan(&r.ID, &r.StartedAt, &r.Processed, &r.Success, &r.Failed, &r.DurationMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// IncrStats：聚合接口成功返回后递增当日计数；visitor 非空时递增访客计数
func (s *Store) IncrStats(ctx context.Context, visitor string) error {
	_, _ = s.db.ExecContext(ctx, `INSERT INTO _voter_stats_daily(day, queries) VALUES(current_date, 1)
        ON CONFLICT (day) DO UPDATE SET queries=_voter_stats_daily.queries+1`)
	if visitor != "" {
		_, _ = s.db.ExecContext(ctx, `INSERT INTO _voter_stats_daily(day, visitors) VALUES(current_date, 1)
            ON CONFLICT (day) DO UPDATE SET visitors=_voter_stats_daily.visitors+1`)
	}
	logger.L().Debug("stats_incr", "visitor", visitor)
	return nil
}

// DailyStats：当日接口调用与访客计数
type DailyStats struct {
	Queries  int64
	Visitors int64
}

// GetDailyStats：读取当日计数，用于接口返回
func (s *Store) GetDailyStats(ctx context.Context) (*DailyStats, error) {
	var t DailyStats
	row := s.db.QueryRowContext(ctx, `SELECT queries, visitors FROM _voter_stats_daily WHERE day=current_date`)
	_ = row.Scan(&t.Queries, &t.Visitors)
	return &t, nil
}
