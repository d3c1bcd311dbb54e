package heatmap

import (
	"database/sql"
	"testing"

	"voter-geo/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func located(id string, lat, lon float64) store.VoterRecord {
	return store.VoterRecord{
		ID:        id,
		Latitude:  sql.NullFloat64{Float64: lat, Valid: true},
		Longitude: sql.NullFloat64{Float64: lon, Valid: true},
	}
}

func TestBuildSnapshotEmpty(t *testing.T) {
	snap := BuildSnapshot(nil)
	assert.Zero(t, snap.TotalVoters)
	assert.Zero(t, snap.VotersWithLocation)
	assert.Empty(t, snap.Points)
	assert.Nil(t, snap.Center)
}

func TestBuildSnapshotNoCoordinates(t *testing.T) {
	roster := []store.VoterRecord{{ID: "1"}, {ID: "2"}}
	snap := BuildSnapshot(roster)
	assert.Equal(t, 2, snap.TotalVoters)
	assert.Zero(t, snap.VotersWithLocation)
	assert.Nil(t, snap.Center)
}

func TestBuildSnapshotSinglePoint(t *testing.T) {
	snap := BuildSnapshot([]store.VoterRecord{located("1", -23.55, -46.63)})
	require.NotNil(t, snap.Center)
	assert.Equal(t, -23.55, snap.Center.Lat)
	assert.Equal(t, -46.63, snap.Center.Lon)
	require.Len(t, snap.Points, 1)
	assert.Equal(t, 1.0, snap.Points[0].Weight)
}

// 10 人中 4 人有坐标：计数正确且中心为算术平均
func TestBuildSnapshotPartialCoverage(t *testing.T) {
	roster := []store.VoterRecord{
		located("1", -23.50, -46.60),
		located("2", -23.60, -46.70),
		located("3", -23.50, -46.70),
		located("4", -23.60, -46.60),
	}
	for i := 0; i < 6; i++ {
		roster = append(roster, store.VoterRecord{ID: "u"})
	}
	snap := BuildSnapshot(roster)
	assert.Equal(t, 10, snap.TotalVoters)
	assert.Equal(t, 4, snap.VotersWithLocation)
	assert.LessOrEqual(t, snap.VotersWithLocation, snap.TotalVoters)
	require.NotNil(t, snap.Center)
	assert.InDelta(t, -23.55, snap.Center.Lat, 1e-9)
	assert.InDelta(t, -46.65, snap.Center.Lon, 1e-9)
}

func TestBuildSnapshotDeterministic(t *testing.T) {
	roster := []store.VoterRecord{
		located("1", -23.50, -46.60),
		located("2", -23.60, -46.70),
	}
	assert.Equal(t, BuildSnapshot(roster), BuildSnapshot(roster))
}
