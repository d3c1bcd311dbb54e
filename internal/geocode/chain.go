package geocode

import (
	"context"

	"voter-geo/internal/logger"
)

// 文档注释：多提供方顺序兜底链
// 背景：单一提供方限流或不可用时切换备选；按注册顺序尝试，取首个成功结果。
// 约束：全部未命中时返回 ErrNotFound；存在瞬时错误时返回最后一个错误，便于上层区分分类。
type Chain struct {
	providers []Provider
}

func NewChain(ps ...Provider) *Chain { return &Chain{providers: ps} }

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Geocode(ctx context.Context, address string) (*Coordinate, error) {
	var lastErr error = ErrNotFound
	for _, p := range c.providers {
		coord, err := p.Geocode(ctx, address)
		if err == nil {
			return coord, nil
		}
		if err != ErrNotFound {
			lastErr = err
		}
		logger.L().Debug("geocode_chain_next", "provider", p.Name(), "err", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
