package store

import (
	"context"

	"voter-geo/internal/birthday"
)

// 文档注释：读取生日计算名册（选民 + 干部）
// 背景：两类人员合并为统一名册交给临近度计算；来源类别随行返回，供前端分组展示。
// 约束：出生日期为空的记录直接过滤；出生年份未知的记录按年份 0001 存储，读取时标记 YearKnown=false。
func (s *Store) ListBirthdayPeople(ctx context.Context) ([]birthday.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, full_name, birth_date, phone, 'voter' AS category
        FROM _voter_records WHERE birth_date IS NOT NULL
        UNION ALL
        SELECT id, full_name, birth_date, phone, 'leader'
        FROM _leader_records WHERE birth_date IS NOT NULL
        ORDER BY 5, 2, 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []birthday.Person
	for rows.Next() {
		var p birthday.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Phone, &p.Category); err != nil {
			return nil, err
		}
		p.YearKnown = p.BirthDate.Year() > 1
		out = append(out, p)
	}
	return out, rows.Err()
}
