// 包 ranking：按社区分组统计选民数量并产出 Top-N 排名
package ranking

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"voter-geo/internal/store"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NeighborhoodStat：单个社区的统计行
type NeighborhoodStat struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// 变音符剥离链：NFD 分解后移除组合记号再合成
// 背景：登记口径不一，"São José" 与 "sao jose" 必须归入同组
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize：社区名归一化（去首尾空白、小写、剥离变音符）
// 约束：转换失败时退回小写去空白结果，不中断聚合
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}

// round1：四舍五入到一位小数
func round1(x float64) float64 { return math.Round(x*10) / 10 }

// 文档注释：社区排名统计
// 背景：按归一化社区名分组计数；社区为空的档案完全排除在分母之外。百分比基于有社区
// 登记的总数计算，保留一位小数。排序先按数量降序，同数量按归一化名称升序保证确定性。
// 约束：topN<=0 返回空序列而非报错（“不展示”是合法结果）；分母为 0 时直接返回空。
func RankNeighborhoods(roster []store.VoterRecord, topN int) []NeighborhoodStat {
	if topN <= 0 {
		return nil
	}
	counts := map[string]int{}
	total := 0
	for _, v := range roster {
		name := Normalize(v.Neighborhood)
		if name == "" {
			continue
		}
		counts[name]++
		total++
	}
	if total == 0 {
		return nil
	}
	stats := make([]NeighborhoodStat, 0, len(counts))
	for name, c := range counts {
		stats = append(stats, NeighborhoodStat{
			Name:       name,
			Count:      c,
			Percentage: round1(100 * float64(c) / float64(total)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > topN {
		stats = stats[:topN]
	}
	return stats
}
