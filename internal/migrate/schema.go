package migrate

import (
	"database/sql"

	"voter-geo/internal/logger"
)

// 背景：首次运行自动创建所需表与索引，保障后续导入与聚合查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _voter_records (
            id TEXT PRIMARY KEY,
            full_name TEXT NOT NULL,
            street TEXT NOT NULL DEFAULT '',
            neighborhood TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL DEFAULT '',
            postal_code TEXT NOT NULL DEFAULT '',
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            birth_date DATE,
            phone TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_voter_pending_geocode
            ON _voter_records(created_at)
            WHERE latitude IS NULL AND (street <> '' OR postal_code <> '')`,
		`CREATE INDEX IF NOT EXISTS idx_voter_neighborhood ON _voter_records(neighborhood)`,
		`CREATE TABLE IF NOT EXISTS _leader_records (
            id TEXT PRIMARY KEY,
            full_name TEXT NOT NULL,
            birth_date DATE,
            phone TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS _voter_sync_runs (
            id SERIAL PRIMARY KEY,
            started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            processed INT NOT NULL DEFAULT 0,
            success INT NOT NULL DEFAULT 0,
            failed INT NOT NULL DEFAULT 0,
            duration_ms BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _voter_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
