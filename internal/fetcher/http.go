package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"

const maxBodyBytes = 16 << 20

// browserHeaders mirror a top-level navigation from desktop Chrome.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-GB,en-US;q=0.9,en;q=0.8",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Sec-Ch-Ua":                 `"Not;A=Brand";v="99", "Google Chrome";v="139", "Chromium";v="139"`,
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"macOS"`,
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// Rate is the per-host request rate. Zero means one request per second.
	Rate  rate.Limit
	Retry resilience.RetryConfig
	// Headers are added to, and override, the browser defaults.
	Headers map[string]string
}

// HTTPFetcher implements Fetcher with browser-like headers, per-host
// pacing, retry of transient statuses, and bot-challenge detection.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Rate == 0 {
		opts.Rate = 1
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "fetch")
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (f *HTTPFetcher) limiterFor(host string) *AdaptiveLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = NewAdaptiveLimiter(f.opts.Rate, 1)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch GETs rawURL and returns its body.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) (string, error) {
	var ro requestOptions
	for _, o := range opts {
		o(&ro)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	if len(ro.query) > 0 {
		q := u.Query()
		for k, v := range ro.query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	lim := f.limiterFor(u.Host)

	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (string, error) {
		if err := lim.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "fetcher: rate limiter wait")
		}
		return f.do(ctx, u.String(), ro, lim)
	})
}

func (f *HTTPFetcher) do(ctx context.Context, target string, ro requestOptions, lim *AdaptiveLimiter) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if ro.referer != "" {
		req.Header.Set("Referer", ro.referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: get %s", target)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: read %s", target)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		lim.OnRateLimit()
	}
	if te := resilience.FromResponse(resp, eris.Errorf("fetcher: http %d from %s", resp.StatusCode, target)); te != nil {
		return "", te
	}
	if IsBlocked(resp.StatusCode, string(body)) {
		zap.L().Warn("fetcher: challenge page detected",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
		)
		return "", eris.Wrapf(ErrBlocked, "fetcher: %s", target)
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, target)
	}

	lim.OnSuccess()
	return string(body), nil
}
