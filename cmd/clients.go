package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Asif-shah786/zoopla-scraper/internal/config"
	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
	"github.com/Asif-shah786/zoopla-scraper/internal/extract"
	"github.com/Asif-shah786/zoopla-scraper/internal/fetcher"
	"github.com/Asif-shah786/zoopla-scraper/internal/resilience"
	"github.com/Asif-shah786/zoopla-scraper/pkg/geocode"
	"github.com/Asif-shah786/zoopla-scraper/pkg/poi"
	"github.com/Asif-shah786/zoopla-scraper/pkg/policeuk"
)

func buildEngine(c *config.Config) *extract.Engine {
	return extract.New(extract.WithJSONRepair(c.Extract.RepairJSON))
}

func buildAggregator(c *config.Config) *crime.Aggregator {
	pc := c.Police
	retry := resilience.FromRetryConfig(pc.MaxRetries, 1000, 0.25)
	retry.OnRetry = resilience.RetryLogger("police", "crimes")

	opts := []policeuk.Option{
		policeuk.WithRetry(retry),
		policeuk.WithBreaker(resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("police"))),
	}
	if pc.BaseURL != "" {
		opts = append(opts, policeuk.WithBaseURL(pc.BaseURL))
	}
	if pc.TimeoutSecs > 0 {
		opts = append(opts, policeuk.WithHTTPClient(&http.Client{Timeout: time.Duration(pc.TimeoutSecs) * time.Second}))
	}
	if pc.RPS > 0 {
		opts = append(opts, policeuk.WithRateLimit(pc.RPS, int(pc.RPS)*2))
	}
	return crime.New(policeuk.NewClient(opts...),
		crime.WithDelay(time.Duration(pc.DelayMs)*time.Millisecond),
		crime.WithMonths(pc.Months),
	)
}

func buildFetcher(c *config.Config) *fetcher.HTTPFetcher {
	sc := c.Scrape
	retry := resilience.FromRetryConfig(sc.MaxRetries, 2000, 0.25)
	retry.OnRetry = resilience.RetryLogger("zoopla", "fetch")
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: sc.UserAgent,
		Timeout:   time.Duration(sc.TimeoutSecs) * time.Second,
		Rate:      rate.Limit(sc.RPS),
		Retry:     retry,
	})
}

// buildGeocoder returns nil when geocoding is disabled or has no key.
func buildGeocoder(c *config.Config, cache geocode.Cache) *geocode.Client {
	gc := c.Geocode
	if !gc.Enabled || gc.APIKey == "" {
		return nil
	}
	opts := []geocode.Option{geocode.WithCountryCode(gc.CountryCode)}
	if gc.BaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(gc.BaseURL))
	}
	if gc.RPS > 0 {
		opts = append(opts, geocode.WithRateLimit(gc.RPS))
	}
	if cache != nil {
		opts = append(opts, geocode.WithCache(cache))
	}
	return geocode.NewClient(gc.APIKey, opts...)
}

// buildPOI returns nil when the points-of-interest service is disabled.
func buildPOI(c *config.Config) *poi.Client {
	if !c.POI.Enabled || c.POI.BaseURL == "" {
		return nil
	}
	return poi.NewClient(c.POI.BaseURL)
}
