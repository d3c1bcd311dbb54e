package geosync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDailyAt(t *testing.T) {
	loc := time.UTC
	// 当日整点未过：当天触发
	now := time.Date(2025, time.June, 15, 1, 30, 0, 0, loc)
	next := nextDailyAt(now, loc, 3)
	assert.Equal(t, time.Date(2025, time.June, 15, 3, 0, 0, 0, loc), next)

	// 当日整点已过：顺延次日
	now = time.Date(2025, time.June, 15, 4, 0, 0, 0, loc)
	next = nextDailyAt(now, loc, 3)
	assert.Equal(t, time.Date(2025, time.June, 16, 3, 0, 0, 0, loc), next)

	// 恰好整点：视为已过
	now = time.Date(2025, time.June, 15, 3, 0, 0, 0, loc)
	next = nextDailyAt(now, loc, 3)
	assert.Equal(t, time.Date(2025, time.June, 16, 3, 0, 0, 0, loc), next)

	// 月末回绕
	now = time.Date(2025, time.June, 30, 23, 0, 0, 0, loc)
	next = nextDailyAt(now, loc, 3)
	assert.Equal(t, time.Date(2025, time.July, 1, 3, 0, 0, 0, loc), next)
}
