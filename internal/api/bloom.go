package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 布隆位图参数：当日访客规模在千级，128K 位 / 4 次哈希的误判率可忽略
const (
	bloomBits   = 1 << 17
	bloomHashes = 4
)

// 文档注释：计算布隆过滤器位置
// 背景：FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit；适配短周期去重场景。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：访客当日首见判定
// 背景：按天滚动的位图键去重访客，避免同一端反复刷新把访客计数灌水；位图随 TTL 自动过期。
// 返回：true 表示当日首次见到（已写入位图）；false 表示已存在。
// 异常：Redis 交互错误时按“非首见”处理并返回 error，避免计数虚高；rc 为 nil 时直接视为非首见。
func visitorFirstSeen(ctx context.Context, rc *redis.Client, ip string) (bool, error) {
	if rc == nil {
		return false, nil
	}
	key := "visitors:bloom:" + time.Now().Format("20060102")
	positions := bloomPositions([]byte(ip), bloomBits, bloomHashes)
	seen := true
	for _, p := range positions {
		b, err := rc.GetBit(ctx, key, p).Result()
		if err != nil {
			return false, err
		}
		if b == 0 {
			seen = false
		}
	}
	if seen {
		return false, nil
	}
	pipe := rc.Pipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}
