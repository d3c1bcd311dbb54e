package birthday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeProximityToday(t *testing.T) {
	roster := []Person{
		{ID: "1", Name: "Ana", BirthDate: date(1990, time.June, 15), YearKnown: true, Category: "voter"},
		{ID: "2", Name: "Bruno", BirthDate: date(1985, time.June, 16), YearKnown: true, Category: "voter"},
	}
	out, err := ComputeProximity(roster, 7, date(2025, time.June, 15))
	require.NoError(t, err)
	require.Len(t, out.Today, 1)
	assert.Equal(t, "1", out.Today[0].ID)
	assert.True(t, out.Today[0].IsToday)
	assert.Equal(t, 35, out.Today[0].TurningAge)
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, 1, out.Upcoming[0].DaysUntil)
	assert.Equal(t, 40, out.Upcoming[0].TurningAge)
}

func TestComputeProximityWindow(t *testing.T) {
	cases := []struct {
		name     string
		birth    time.Time
		asOf     time.Time
		window   int
		upcoming bool
		days     int
	}{
		{"window_edge_included", date(1990, time.June, 22), date(2025, time.June, 15), 7, true, 7},
		{"outside_window", date(1990, time.June, 23), date(2025, time.June, 15), 7, false, 0},
		{"year_wrap", date(1990, time.December, 31), date(2025, time.December, 28), 7, true, 3},
		{"already_passed_rolls_over", date(1990, time.January, 2), date(2025, time.December, 30), 7, true, 3},
		{"zero_window_empty", date(1990, time.June, 16), date(2025, time.June, 15), 0, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ComputeProximity([]Person{{ID: "x", Name: "X", BirthDate: tc.birth, YearKnown: true}}, tc.window, tc.asOf)
			require.NoError(t, err)
			if tc.upcoming {
				require.Len(t, out.Upcoming, 1)
				assert.Equal(t, tc.days, out.Upcoming[0].DaysUntil)
			} else {
				assert.Empty(t, out.Upcoming)
			}
		})
	}
}

// 跨年回绕：12/31 生日在 1/2 评估时日差应为正向 363/364 天，绝不为负
func TestComputeProximityYearWrapLongDistance(t *testing.T) {
	out, err := ComputeProximity(
		[]Person{{ID: "1", Name: "Ana", BirthDate: date(1990, time.December, 31), YearKnown: true}},
		365, date(2025, time.January, 2))
	require.NoError(t, err)
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, 363, out.Upcoming[0].DaysUntil)
}

// 平年 2/29：规范化落到 3/1；3/1 当天视为已过，顺延至下一次出现
func TestComputeProximityLeapDay(t *testing.T) {
	p := []Person{{ID: "1", Name: "Leap", BirthDate: date(2000, time.February, 29), YearKnown: true}}

	out, err := ComputeProximity(p, 7, date(2025, time.February, 25))
	require.NoError(t, err)
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, 4, out.Upcoming[0].DaysUntil)

	// 3/1 平年当天：不属于 today（月日不等），也不产生 DaysUntil=0 的条目
	out, err = ComputeProximity(p, 7, date(2025, time.March, 1))
	require.NoError(t, err)
	assert.Empty(t, out.Today)
	assert.Empty(t, out.Upcoming)

	// 闰年按 2/29 正常计算
	out, err = ComputeProximity(p, 7, date(2024, time.February, 29))
	require.NoError(t, err)
	require.Len(t, out.Today, 1)
	assert.Equal(t, 24, out.Today[0].TurningAge)
}

// asOf 带时分秒与非 UTC 时区时，应与同日 UTC 午夜得到完全一致的结果（日差恒为整数天）
func TestComputeProximityNormalizesAsOf(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	roster := []Person{
		{ID: "1", Name: "Ana", BirthDate: date(1990, time.June, 18), YearKnown: true},
		{ID: "2", Name: "Leap", BirthDate: date(2000, time.February, 29), YearKnown: true},
	}

	wall := time.Date(2025, time.February, 26, 18, 47, 3, 0, loc)
	out, err := ComputeProximity(roster, 7, wall)
	require.NoError(t, err)
	midnight, err := ComputeProximity(roster, 7, date(2025, time.February, 26))
	require.NoError(t, err)
	assert.Equal(t, midnight, out)

	// 平年观察日 3/1：2/26 起算日差 3 天，年龄按候选出现年份计
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, "Leap", out.Upcoming[0].Name)
	assert.Equal(t, 3, out.Upcoming[0].DaysUntil)
	assert.Equal(t, 25, out.Upcoming[0].TurningAge)
}

func TestComputeProximityUnknownYear(t *testing.T) {
	out, err := ComputeProximity(
		[]Person{{ID: "1", Name: "Ana", BirthDate: date(1, time.June, 16), YearKnown: false}},
		7, date(2025, time.June, 15))
	require.NoError(t, err)
	require.Len(t, out.Upcoming, 1)
	assert.Zero(t, out.Upcoming[0].TurningAge)
}

func TestComputeProximityOrderingAndDeterminism(t *testing.T) {
	roster := []Person{
		{ID: "1", Name: "Carla", BirthDate: date(1990, time.June, 18), YearKnown: true},
		{ID: "2", Name: "Bia", BirthDate: date(1990, time.June, 16), YearKnown: true},
		{ID: "3", Name: "Ana", BirthDate: date(1990, time.June, 16), YearKnown: true},
	}
	asOf := date(2025, time.June, 15)
	out, err := ComputeProximity(roster, 7, asOf)
	require.NoError(t, err)
	require.Len(t, out.Upcoming, 3)
	assert.Equal(t, []string{"Ana", "Bia", "Carla"},
		[]string{out.Upcoming[0].Name, out.Upcoming[1].Name, out.Upcoming[2].Name})

	again, err := ComputeProximity(roster, 7, asOf)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestComputeProximitySkipsAndErrors(t *testing.T) {
	out, err := ComputeProximity([]Person{{ID: "1", Name: "NoDate"}}, 7, date(2025, time.June, 15))
	require.NoError(t, err)
	assert.Empty(t, out.Today)
	assert.Empty(t, out.Upcoming)

	_, err = ComputeProximity(nil, -1, date(2025, time.June, 15))
	assert.ErrorIs(t, err, ErrNegativeWindow)
}
