// 包 birthday：生日临近度计算，按“今天/未来 N 天”划分名册并处理跨年回绕
package birthday

import (
	"errors"
	"sort"
	"time"
)

// Person：参与生日计算的人员，来源可为选民或干部名册
// 约束：BirthDate 为零值表示未知生日，整条跳过；YearKnown 为 false 时不计算年龄
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	YearKnown bool      `json:"year_known"`
	Category  string    `json:"category"`
	Phone     string    `json:"phone,omitempty"`
}

// Entry：派生的生日条目；DaysUntil 仅在非当天条目上有意义
type Entry struct {
	Person
	IsToday    bool `json:"is_today"`
	DaysUntil  int  `json:"days_until,omitempty"`
	TurningAge int  `json:"turning_age,omitempty"`
}

// Proximity：一次计算的完整输出，Today 保持输入顺序，Upcoming 按临近度排序
type Proximity struct {
	Today    []Entry `json:"today"`
	Upcoming []Entry `json:"upcoming"`
}

// ErrNegativeWindow：窗口天数为负属于调用方契约错误
var ErrNegativeWindow = errors.New("birthday: negative window")

// dateOnly：抹掉时分秒，统一到 UTC 午夜，保证日差为整数天
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 文档注释：计算生日临近度
// 背景：忽略出生年份按（月,日）匹配“今天”；其余构造今年的下一次出现，已过则顺延到明年，
// 自然覆盖 12 月→1 月回绕。2 月 29 日在平年由日期规范化落到 3 月 1 日；规范化结果恰好
// 等于 asOf 当天时视为已过，顺延下一年，避免出现 DaysUntil=0 的歧义条目。
// 约束：asOf 由调用方显式传入，内部不读取挂钟；相同输入必然产生相同输出。
func ComputeProximity(roster []Person, windowDays int, asOf time.Time) (Proximity, error) {
	var out Proximity
	if windowDays < 0 {
		return out, ErrNegativeWindow
	}
	base := dateOnly(asOf)
	for _, p := range roster {
		if p.BirthDate.IsZero() {
			continue
		}
		bm := p.BirthDate.Month()
		bd := p.BirthDate.Day()
		if bm == base.Month() && bd == base.Day() {
			e := Entry{Person: p, IsToday: true}
			if p.YearKnown {
				e.TurningAge = base.Year() - p.BirthDate.Year()
			}
			out.Today = append(out.Today, e)
			continue
		}
		candidate := time.Date(base.Year(), bm, bd, 0, 0, 0, 0, time.UTC)
		if !candidate.After(base) {
			candidate = time.Date(base.Year()+1, bm, bd, 0, 0, 0, 0, time.UTC)
		}
		days := int(candidate.Sub(base) / (24 * time.Hour))
		if days <= 0 || days > windowDays {
			continue
		}
		e := Entry{Person: p, DaysUntil: days}
		if p.YearKnown {
			e.TurningAge = candidate.Year() - p.BirthDate.Year()
		}
		out.Upcoming = append(out.Upcoming, e)
	}
	sort.SliceStable(out.Upcoming, func(i, j int) bool {
		if out.Upcoming[i].DaysUntil != out.Upcoming[j].DaysUntil {
			return out.Upcoming[i].DaysUntil < out.Upcoming[j].DaysUntil
		}
		return out.Upcoming[i].Name < out.Upcoming[j].Name
	})
	return out, nil
}
