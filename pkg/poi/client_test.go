package poi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

const nearbyJSON = `{"points":[
  {"kind":"school","name":"St Mary's Primary","distance_miles":0.4,"ofsted":"Outstanding"},
  {"kind":"transport","name":"Piccadilly","distance_miles":0.8,"type":"rail","zone":"1","lines":["Northern"]},
  {"kind":"pharmacy","name":"Boots","distance_miles":0.1}
]}`

func instant(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestClient(srvURL string) *Client {
	return NewClient(srvURL, WithRateLimit(1000), WithRetry(resilience.RetryConfig{MaxAttempts: 2, Sleep: instant}))
}

func TestNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearby", r.URL.Path)
		assert.Equal(t, "-2.2426", r.URL.Query().Get("lon"))
		assert.Equal(t, "53.4808", r.URL.Query().Get("lat"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(nearbyJSON))
	}))
	defer srv.Close()

	pts, err := newTestClient(srv.URL).Nearby(context.Background(), -2.2426, 53.4808, 3)
	require.NoError(t, err)
	require.Len(t, pts, 2, "unknown kinds dropped")
	assert.Equal(t, model.PointSchool, pts[0].Kind)
	assert.Equal(t, "Outstanding", pts[0].Ofsted)
	assert.Equal(t, "rail", pts[1].Type)
	assert.Equal(t, []string{"Northern"}, pts[1].Lines)
}

func TestNearby_DefaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"points":[]}`))
	}))
	defer srv.Close()

	pts, err := newTestClient(srv.URL).Nearby(context.Background(), 0.1, 51.5, 0)
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestNearby_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Nearby(context.Background(), 0.1, 51.5, 5)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNearby_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Nearby(context.Background(), 0.1, 51.5, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}
