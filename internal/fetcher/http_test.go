package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

func instantSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		Timeout: 5 * time.Second,
		Rate:    rate.Inf,
		Retry:   resilience.RetryConfig{MaxAttempts: 3, Sleep: instantSleep},
	})
}

var listingBody = "<html><body>" + strings.Repeat("<p>3 bed terraced house for sale</p>", 10) + "</body></html>"

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "en-GB,en-US;q=0.9,en;q=0.8", r.Header.Get("Accept-Language"))
		assert.Equal(t, "navigate", r.Header.Get("Sec-Fetch-Mode"))
		assert.Equal(t, "https://www.zoopla.co.uk/for-sale/", r.Header.Get("Referer"))
		assert.Equal(t, "2", r.URL.Query().Get("pn"))
		assert.Equal(t, "Greater Manchester", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(listingBody))
	}))
	defer srv.Close()

	body, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/for-sale/property/",
		WithReferer("https://www.zoopla.co.uk/for-sale/"),
		WithQuery("pn", "2"),
		WithQuery("q", "Greater Manchester"),
	)
	require.NoError(t, err)
	assert.Equal(t, listingBody, body)
}

func TestFetch_HeaderOverrides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom", r.Header.Get("User-Agent"))
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		_, _ = w.Write([]byte(listingBody))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		UserAgent: "custom",
		Rate:      rate.Inf,
		Headers:   map[string]string{"Cookie": "session=abc"},
	})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(listingBody))
	}))
	defer srv.Close()

	body, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, listingBody, body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RateLimitedExhausts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_NotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><title>Just a moment...</title></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
}

func TestFetch_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrBlocked))
}

func TestFetch_BadURL(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "://nope")
	require.Error(t, err)
}

func TestIsBlocked(t *testing.T) {
	assert.True(t, IsBlocked(403, listingBody))
	assert.True(t, IsBlocked(200, "Please enable cookies to continue"))
	assert.False(t, IsBlocked(200, listingBody))
	big := strings.Repeat("x", challengePageMaxLen+1) + "access denied"
	assert.False(t, IsBlocked(200, big))
}

func TestAdaptiveLimiter(t *testing.T) {
	a := NewAdaptiveLimiter(4, 1)
	a.OnRateLimit()
	assert.Equal(t, rate.Limit(2), a.Limit())
	a.OnRateLimit()
	a.OnRateLimit()
	assert.Equal(t, rate.Limit(1), a.Limit(), "floor is a quarter of the initial rate")

	for i := 0; i < 20; i++ {
		a.OnSuccess()
	}
	assert.Equal(t, rate.Limit(4), a.Limit(), "recovery stops at the initial rate")
}
