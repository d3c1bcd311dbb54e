package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGeocodeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-8.0578381","lon":"-34.8828969"}]`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	coord, err := c.Geocode(context.Background(), "Rua do Sol, 120, Recife PE")
	require.NoError(t, err)
	assert.InDelta(t, -8.0578381, coord.Lat, 1e-9)
	assert.InDelta(t, -34.8828969, coord.Lon, 1e-9)
}

func TestClientGeocodeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Geocode(context.Background(), "endereço inexistente")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientGeocodeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Geocode(context.Background(), "qualquer")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

type stubProvider struct {
	name  string
	coord *Coordinate
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Geocode(context.Context, string) (*Coordinate, error) {
	s.calls++
	return s.coord, s.err
}

func TestChainFirstHitWins(t *testing.T) {
	p1 := &stubProvider{name: "p1", coord: &Coordinate{Lat: 1, Lon: 2}}
	p2 := &stubProvider{name: "p2", coord: &Coordinate{Lat: 9, Lon: 9}}
	coord, err := NewChain(p1, p2).Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, coord.Lat)
	assert.Zero(t, p2.calls)
}

func TestChainFallsBack(t *testing.T) {
	p1 := &stubProvider{name: "p1", err: errors.New("timeout")}
	p2 := &stubProvider{name: "p2", coord: &Coordinate{Lat: 3, Lon: 4}}
	coord, err := NewChain(p1, p2).Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 3.0, coord.Lat)
	assert.Equal(t, 1, p1.calls)
}

func TestChainAllMiss(t *testing.T) {
	p1 := &stubProvider{name: "p1", err: ErrNotFound}
	p2 := &stubProvider{name: "p2", err: ErrNotFound}
	_, err := NewChain(p1, p2).Geocode(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	// 存在瞬时错误时返回该错误而非未命中，便于上层分类
	p3 := &stubProvider{name: "p3", err: errors.New("503")}
	_, err = NewChain(p1, p3).Geocode(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
