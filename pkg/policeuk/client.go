// Package policeuk is a client for the data.police.uk street-level crime API.
package policeuk

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

// DefaultBaseURL is the public police API root.
const DefaultBaseURL = "https://data.police.uk/api"

// The API allows 15 requests per second with a burst of 30.
const (
	defaultRate  = 15
	defaultBurst = 30
)

// Client fetches street-level incidents. It is safe for concurrent use and
// satisfies crime.IncidentSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate and burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for 429 and 5xx responses.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithBreaker sets the circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a police API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(defaultRate, defaultBurst),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("policeuk", "crimes-street")
	}
	if c.breaker == nil {
		c.breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("policeuk"))
	}
	return c
}

// Crimes returns every street-level incident within roughly a mile of the
// coordinate in month. A month the API has not published yet (404) yields
// no incidents.
func (c *Client) Crimes(ctx context.Context, lat, lng float64, month model.MonthKey) ([]model.Incident, error) {
	params := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":  {strconv.FormatFloat(lng, 'f', -1, 64)},
		"date": {string(month)},
	}
	reqURL := c.baseURL + "/crimes-street/all-crime?" + params.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]model.Incident, error) {
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]model.Incident, error) {
			return c.get(ctx, reqURL)
		})
	})
}

func (c *Client) get(ctx context.Context, reqURL string) ([]model.Incident, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "policeuk: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "policeuk: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "policeuk: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if te := resilience.FromResponse(resp, eris.Errorf("policeuk: status %d", resp.StatusCode)); te != nil {
		return nil, te
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("policeuk: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "policeuk: read body")
	}
	var incidents []model.Incident
	if err := json.Unmarshal(body, &incidents); err != nil {
		return nil, eris.Wrap(err, "policeuk: parse response")
	}
	return incidents, nil
}
