// Package geocode resolves UK addresses to coordinates with the Geoapify
// geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

// DefaultBaseURL is the Geoapify forward geocoding endpoint.
const DefaultBaseURL = "https://api.geoapify.com/v1/geocode/search"

// ErrQuotaExceeded is returned when Geoapify answers 402.
var ErrQuotaExceeded = eris.New("geocode: geoapify quota exceeded")

// Cache stores geocode results by normalized query.
type Cache interface {
	GetCachedGeocode(ctx context.Context, query string) (*model.GeoResult, error)
	SetCachedGeocode(ctx context.Context, query string, result *model.GeoResult) error
}

// Client geocodes addresses. It is safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	countryCode string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
	cache       Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithCountryCode restricts results to one ISO country.
func WithCountryCode(cc string) Option {
	return func(c *Client) { c.countryCode = strings.ToLower(cc) }
}

// WithCache enables result caching.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetry sets the 429 retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// DefaultRetryConfig waits 2s, 4s, then 8s between rate-limited attempts.
func DefaultRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2,
	}
}

// NewClient creates a Geoapify client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		countryCode: "gb",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(1, 1),
		retry:       DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("geoapify", "geocode")
	}
	return c
}

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeAddress collapses whitespace and appends ", United Kingdom"
// unless the address already names the country.
func NormalizeAddress(addr string) string {
	a := strings.TrimSpace(spaceRun.ReplaceAllString(addr, " "))
	if a == "" {
		return ""
	}
	lower := strings.ToLower(a)
	if !strings.Contains(lower, "united kingdom") && !strings.Contains(lower, "uk") {
		a += ", United Kingdom"
	}
	return a
}

// Geocode resolves address. An empty address or no match returns a result
// with Matched false; only matches are cached.
func (c *Client) Geocode(ctx context.Context, address string) (*model.GeoResult, error) {
	query := NormalizeAddress(address)
	if query == "" {
		return &model.GeoResult{Query: query}, nil
	}
	log := zap.L().With(zap.String("query", query))

	if c.cache != nil {
		cached, err := c.cache.GetCachedGeocode(ctx, query)
		if err != nil {
			log.Warn("geocode: cache lookup failed", zap.Error(err))
		} else if cached != nil {
			log.Debug("geocode: cache hit")
			return cached, nil
		}
	}
	if c.apiKey == "" {
		return nil, eris.New("geocode: geoapify api key not configured")
	}

	res, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*model.GeoResult, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	if res.Matched && c.cache != nil {
		if err := c.cache.SetCachedGeocode(ctx, query, res); err != nil {
			log.Warn("geocode: cache store failed", zap.Error(err))
		}
	}
	return res, nil
}

func (c *Client) search(ctx context.Context, query string) (*model.GeoResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"text":   {query},
		"limit":  {"1"},
		"apiKey": {c.apiKey},
	}
	if c.countryCode != "" {
		params.Set("filter", "countrycode:"+c.countryCode)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewTransientError(eris.New("geocode: rate limited"), resp.StatusCode)
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrQuotaExceeded
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("geocode: geoapify returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}
	return parseFeatures(query, body)
}

// parseFeatures reads the first feature of a GeoJSON FeatureCollection.
// Coordinates are [lon, lat].
func parseFeatures(query string, body []byte) (*model.GeoResult, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	out := &model.GeoResult{Query: query}
	if len(fc.Features) == 0 {
		return out, nil
	}

	f := fc.Features[0]
	pt, ok := f.Geometry.(*geom.Point)
	if !ok || pt == nil || pt.Empty() {
		return out, nil
	}
	out.Longitude = pt.X()
	out.Latitude = pt.Y()
	out.Matched = true

	props := f.Properties
	out.Postcode = prop(props, "postcode")
	out.City = prop(props, "city")
	out.County = prop(props, "county")
	out.State = prop(props, "state")
	out.ResultType = prop(props, "result_type")
	out.Formatted = prop(props, "formatted")
	return out, nil
}

func prop(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}
