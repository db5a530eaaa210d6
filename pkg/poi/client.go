// Package poi is a client for a nearby points-of-interest service returning
// schools and transport stops around a coordinate.
package poi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

// DefaultLimit is the number of points requested when none is given.
const DefaultLimit = 5

// Client queries the points-of-interest service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry sets the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(5, 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("poi", "nearby")
	}
	return c
}

type nearbyResponse struct {
	Points []model.Point `json:"points"`
}

// Nearby returns up to limit points around the coordinate. Points with an
// unknown kind are dropped.
func (c *Client) Nearby(ctx context.Context, lon, lat float64, limit int) ([]model.Point, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	params := url.Values{
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"limit": {strconv.Itoa(limit)},
	}
	reqURL := c.baseURL + "/nearby?" + params.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]model.Point, error) {
		return c.get(ctx, reqURL)
	})
}

func (c *Client) get(ctx context.Context, reqURL string) ([]model.Point, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "poi: rate limit")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "poi: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "poi: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if te := resilience.FromResponse(resp, eris.Errorf("poi: status %d", resp.StatusCode)); te != nil {
		return nil, te
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("poi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "poi: read body")
	}
	var out nearbyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "poi: parse response")
	}

	points := out.Points[:0]
	for _, p := range out.Points {
		if p.Kind == model.PointSchool || p.Kind == model.PointTransport {
			points = append(points, p)
		}
	}
	return points, nil
}
