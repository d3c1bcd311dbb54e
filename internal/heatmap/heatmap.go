// 包 heatmap：把带坐标的选民档案转换为加权热力点，并计算展示中心
package heatmap

import (
	"voter-geo/internal/store"
)

// Coordinate：纬度/经度对（WGS84）
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point：单个热力点；权重控制渲染强度，当前统一为 1.0（一人一单位密度）
type Point struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// Snapshot：一次聚合的完整输出
// 约束：VotersWithLocation <= TotalVoters；Center 仅在存在至少一个点时非 nil
type Snapshot struct {
	TotalVoters        int         `json:"total_voters"`
	VotersWithLocation int         `json:"voters_with_location"`
	Points             []Point     `json:"points"`
	Center             *Coordinate `json:"center,omitempty"`
}

// 文档注释：构建热力图快照
// 背景：过滤出坐标完整的档案，逐条生成权重 1.0 的热力点；中心取各点经纬度的算术平均。
// 城市级跨度下小角度近似成立，不做球面质心。零点时 Center 为 nil，由消费方渲染空态。
// 约束：纯函数，无副作用；相同名册必然产生相同快照。
func BuildSnapshot(roster []store.VoterRecord) Snapshot {
	snap := Snapshot{TotalVoters: len(roster)}
	var sumLat, sumLon float64
	for _, v := range roster {
		if !v.HasCoordinate() {
			continue
		}
		lat := v.Latitude.Float64
		lon := v.Longitude.Float64
		snap.Points = append(snap.Points, Point{Lat: lat, Lon: lon, Weight: 1.0})
		sumLat += lat
		sumLon += lon
	}
	snap.VotersWithLocation = len(snap.Points)
	if n := len(snap.Points); n > 0 {
		snap.Center = &Coordinate{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
	}
	return snap
}
