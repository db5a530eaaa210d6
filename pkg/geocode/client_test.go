package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

const featureJSON = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "Point", "coordinates": [-2.2426, 53.4808]},
    "properties": {
      "postcode": "M1 1AA",
      "city": "Manchester",
      "county": "Greater Manchester",
      "state": "England",
      "result_type": "building",
      "formatted": "1 Mill Lane, Manchester M1 1AA, United Kingdom"
    }
  }],
  "query": {"text": "1 Mill Lane, Manchester, United Kingdom"}
}`

type memCache struct {
	mu   sync.Mutex
	data map[string]*model.GeoResult
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string]*model.GeoResult{}} }

func (m *memCache) GetCachedGeocode(_ context.Context, q string) (*model.GeoResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[q], nil
}

func (m *memCache) SetCachedGeocode(_ context.Context, q string, r *model.GeoResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[q] = r
	m.sets++
	return nil
}

func instant(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestClient(srvURL string, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(srvURL),
		WithRateLimit(1000),
		WithRetry(resilience.RetryConfig{MaxAttempts: 4, Sleep: instant}),
	}
	return NewClient("test-key", append(base, opts...)...)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  1 Mill   Lane,\n Manchester ", "1 Mill Lane, Manchester, United Kingdom"},
		{"10 Downing St, London, United Kingdom", "10 Downing St, London, United Kingdom"},
		{"Flat 2, Leeds, UK", "Flat 2, Leeds, UK"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAddress(tt.in), tt.in)
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1 Mill Lane, Manchester, United Kingdom", q.Get("text"))
		assert.Equal(t, "countrycode:gb", q.Get("filter"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "test-key", q.Get("apiKey"))
		_, _ = w.Write([]byte(featureJSON))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), "1 Mill Lane, Manchester")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 53.4808, res.Latitude, 1e-9)
	assert.InDelta(t, -2.2426, res.Longitude, 1e-9)
	assert.Equal(t, "M1 1AA", res.Postcode)
	assert.Equal(t, "Manchester", res.City)
	assert.Equal(t, "Greater Manchester", res.County)
	assert.Equal(t, "England", res.State)
	assert.Equal(t, "building", res.ResultType)
}

func TestGeocode_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	cache := newMemCache()
	res, err := newTestClient(srv.URL, WithCache(cache)).Geocode(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, cache.sets, "misses are not cached")
}

func TestGeocode_EmptyAddressSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_CacheHit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(featureJSON))
	}))
	defer srv.Close()

	cache := newMemCache()
	c := newTestClient(srv.URL, WithCache(cache))
	_, err := c.Geocode(context.Background(), "1 Mill Lane, Manchester")
	require.NoError(t, err)
	res, err := c.Geocode(context.Background(), "1  Mill Lane,   Manchester")
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.data, "1 Mill Lane, Manchester, United Kingdom")
}

func TestGeocode_RateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(featureJSON))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Geocode(context.Background(), "1 Mill Lane, Manchester")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeocode_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "1 Mill Lane")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load(), "one try plus three retries")
}

func TestGeocode_QuotaExceeded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "1 Mill Lane")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrQuotaExceeded))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_MissingKey(t *testing.T) {
	_, err := NewClient("").Geocode(context.Background(), "1 Mill Lane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestDefaultRetryConfig_Waits(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 2*time.Second, resilience.Backoff(0, cfg))
	assert.Equal(t, 4*time.Second, resilience.Backoff(1, cfg))
	assert.Equal(t, 8*time.Second, resilience.Backoff(2, cfg))
}
