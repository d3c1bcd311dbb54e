// 包 store：提供与 PostgreSQL 的数据访问层，包含选民档案读写与同步统计
package store

import (
	"context"
	"database/sql"

	"voter-geo/internal/logger"

	_ "github.com/lib/pq"
)

// Store：数据库访问入口，持有连接池并提供档案/统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open：使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// Close：关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// VoterRecord：选民档案行，地址与坐标字段允许为空
// 约束：Latitude/Longitude 要么同时有效要么同时无效，写入路径保证成对更新
type VoterRecord struct {
	ID           string
	FullName     string
	Street       string
	Neighborhood string
	City         string
	State        string
	PostalCode   string
	Latitude     sql.NullFloat64
	Longitude    sql.NullFloat64
	BirthDate    sql.NullTime
	Phone        string
}

// HasCoordinate：坐标对是否完整
func (v VoterRecord) HasCoordinate() bool { return v.Latitude.Valid && v.Longitude.Valid }

// HasAddress：是否具备可提交地理编码的最小地址信息（街道或邮编）
func (v VoterRecord) HasAddress() bool { return v.Street != "" || v.PostalCode != "" }

const voterColumns = `id, full_name, street, neighborhood, city, state, postal_code, latitude, longitude, birth_date, phone`

func scanVoter(rows *sql.Rows) (VoterRecord, error) {
	var v VoterRecord
	err := rows.Scan(&v.ID, &v.FullName, &v.Street, &v.Neighborhood, &v.City, &v.State,
		&v.PostalCode, &v.Latitude, &v.Longitude, &v.BirthDate, &v.Phone)
	return v, err
}

// ListVoters：读取全部选民档案，按创建顺序返回
// 背景：聚合计算（热力图/社区排名）按内存快照工作，一次性取全量；万级规模下可接受
func (s *Store) ListVoters(ctx context.Context) ([]VoterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+voterColumns+` FROM _voter_records ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VoterRecord
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// 文档注释：获取待地理编码的候选档案
// 背景：筛选有地址但无坐标的记录，按插入顺序取前 limit 条，保证多次调用推进稳定前缀。
// 约束：limit<=0 时回退默认 50；失败项下次调用仍然入选，由调用方控制节奏。
func (s *Store) ListPendingGeocode(ctx context.Context, limit int) ([]VoterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+voterColumns+` FROM _voter_records
        WHERE latitude IS NULL AND (street <> '' OR postal_code <> '')
        ORDER BY created_at, id
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VoterRecord
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateCoordinate：把解析出的坐标写回档案
// 约束：成对写入经纬度并刷新 updated_at；影响行数为 0 视为记录已删除，返回 sql.ErrNoRows
func (s *Store) UpdateCoordinate(ctx context.Context, id string, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE _voter_records SET latitude=$2, longitude=$3, updated_at=now() WHERE id=$1`,
		id, lat, lon)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	logger.L().Debug("coordinate_saved", "id", id, "lat", lat, "lon", lon)
	return nil
}

// Coverage：档案总数与已定位数，用于完整度展示
type Coverage struct {
	Total   int64
	Located int64
}

// GetCoverage：统计总量与已有坐标的数量
func (s *Store) GetCoverage(ctx context.Context) (*Coverage, error) {
	var c Coverage
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COUNT(latitude) FROM _voter_records`)
	if err := row.Scan(&c.Total, &c.Located); err != nil {
		return nil, err
	}
	return &c, nil
}
