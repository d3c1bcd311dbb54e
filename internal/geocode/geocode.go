// 包 geocode：外部地理编码边界，把邮政地址解析为经纬度坐标
package geocode

import (
	"context"
	"errors"
)

// Coordinate：解析出的经纬度（WGS84）
type Coordinate struct {
	Lat float64
	Lon float64
}

// ErrNotFound：提供方无法解析该地址（与瞬时故障区分，便于上层分类计数）
var ErrNotFound = errors.New("geocode: address not found")

// Provider：地理编码提供方抽象
// 背景：同步编排器只依赖该接口，便于测试注入与多提供方兜底
type Provider interface {
	Geocode(ctx context.Context, address string) (*Coordinate, error)
	Name() string
}
