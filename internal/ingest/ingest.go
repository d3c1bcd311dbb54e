// 包 ingest：提供选民名册的批量导入逻辑，作为离线数据通道
package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"voter-geo/internal/logger"
)

const upsertVoterSQL = `INSERT INTO _voter_records(id, full_name, street, neighborhood, city, state, postal_code, birth_date, phone)
    VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (id) DO UPDATE SET
        full_name=EXCLUDED.full_name, street=EXCLUDED.street, neighborhood=EXCLUDED.neighborhood,
        city=EXCLUDED.city, state=EXCLUDED.state, postal_code=EXCLUDED.postal_code,
        birth_date=EXCLUDED.birth_date, phone=EXCLUDED.phone, updated_at=now()`

// parseBirthDate：解析 YYYY-MM-DD 文本；为空返回 NULL
// 约束：非法日期整行跳过由调用方决定，这里只返回错误
func parseBirthDate(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// 文档注释：流式导入选民名册 CSV 并批量写库
// 背景：列顺序固定为 id,full_name,street,neighborhood,city,state,postal_code,birth_date,phone；
// 首行为表头时自动跳过。5000 行为一批提交，降低锁持有与 WAL 压力；主键冲突按更新处理，
// 导入因此可重复执行。
// 异常：格式错误的行记录日志后跳过；数据库错误直接返回，不做重试（交由调用方处理）。
func ImportCSV(db *sql.DB, r io.Reader) (int, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = 9
	rd.TrimLeadingSpace = true

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	var stmt *sql.Stmt
	// 清理闭包读取的是当前批次的 tx/stmt；批次边界重新 Begin/Prepare 后依然生效
	defer func() {
		if stmt != nil {
			_ = stmt.Close()
		}
		if tx != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err = tx.Prepare(upsertVoterSQL)
	if err != nil {
		return 0, err
	}

	count := 0
	skipped := 0
	first := true
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				skipped++
				logger.L().Warn("import_row_skipped", "reason", "field_count")
				continue
			}
			return count, err
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
				continue
			}
		}
		id := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if id == "" || name == "" {
			skipped++
			continue
		}
		bd, err := parseBirthDate(rec[7])
		if err != nil {
			skipped++
			logger.L().Warn("import_row_skipped", "id", id, "reason", "bad_birth_date")
			continue
		}
		if _, err := stmt.Exec(id, name, strings.TrimSpace(rec[2]), strings.TrimSpace(rec[3]),
			strings.TrimSpace(rec[4]), strings.TrimSpace(rec[5]), strings.TrimSpace(rec[6]),
			bd, strings.TrimSpace(rec[8])); err != nil {
			return count, err
		}
		count++
		if count%5000 == 0 {
			logger.L().Info("import_progress", "count", count)
			_ = stmt.Close()
			if err = tx.Commit(); err != nil {
				return count, err
			}
			tx, err = db.Begin()
			if err != nil {
				return count, err
			}
			stmt, err = tx.Prepare(upsertVoterSQL)
			if err != nil {
				return count, err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return count, err
	}
	logger.L().Info("import_done", "count", count, "skipped", skipped)
	return count, nil
}
