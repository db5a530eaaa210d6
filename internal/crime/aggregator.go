// Package crime reduces per-month street-level incidents around a coordinate
// into a six-month profile with a trend classification.
package crime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

const (
	// DefaultMonths is the trailing window length.
	DefaultMonths = 6
	// DefaultDelay paces consecutive month fetches for one coordinate.
	DefaultDelay = 250 * time.Millisecond

	topStreets = 3
)

// IncidentSource looks up the incidents recorded near a coordinate in one
// month.
type IncidentSource interface {
	Crimes(ctx context.Context, lat, lng float64, month model.MonthKey) ([]model.Incident, error)
}

// IncidentSourceFunc adapts a function to IncidentSource.
type IncidentSourceFunc func(ctx context.Context, lat, lng float64, month model.MonthKey) ([]model.Incident, error)

// Crimes calls f.
func (f IncidentSourceFunc) Crimes(ctx context.Context, lat, lng float64, month model.MonthKey) ([]model.Incident, error) {
	return f(ctx, lat, lng, month)
}

// Aggregator computes crime aggregates. It keeps no state between calls and
// may be shared across goroutines when its source is.
type Aggregator struct {
	src    IncidentSource
	delay  time.Duration
	months int
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDelay sets the pause after each month fetch.
func WithDelay(d time.Duration) Option {
	return func(a *Aggregator) {
		if d >= 0 {
			a.delay = d
		}
	}
}

// WithMonths sets the window length.
func WithMonths(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.months = n
		}
	}
}

// WithClock sets the clock the window is anchored to.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithSleeper replaces the pacing sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Aggregator) { a.sleep = sleep }
}

// New creates an Aggregator over src.
func New(src IncidentSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:    src,
		delay:  DefaultDelay,
		months: DefaultMonths,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Months returns the window length.
func (a *Aggregator) Months() int { return a.months }

// Aggregate fetches each month of the window in order, newest first, and
// reduces the pooled incidents. A failed month counts as zero incidents. If
// ctx is cancelled the months not yet fetched count as zero.
func (a *Aggregator) Aggregate(ctx context.Context, lat, lng float64) model.CrimeAggregate {
	log := zap.L().With(zap.Float64("lat", lat), zap.Float64("lng", lng))

	months := normalize.RecentMonths(a.now(), a.months)
	monthly := make(map[model.MonthKey]int, len(months))
	var pool []model.Incident

	for _, month := range months {
		monthly[month] = 0
		if ctx.Err() != nil {
			continue
		}

		incidents, err := a.src.Crimes(ctx, lat, lng, month)
		if err != nil {
			log.Warn("crime: month fetch failed", zap.String("month", string(month)), zap.Error(err))
			incidents = nil
		}
		monthly[month] = len(incidents)
		pool = append(pool, incidents...)

		if err := a.sleep(ctx, a.delay); err != nil {
			log.Debug("crime: pacing interrupted", zap.Error(err))
		}
	}

	agg := Reduce(pool, monthly)
	log.Debug("crime: aggregated",
		zap.Int("total", agg.Total),
		zap.String("trend", string(agg.Trend)),
	)
	return agg
}

// Reduce builds an aggregate from pooled incidents and per-month counts.
func Reduce(pool []model.Incident, monthly map[model.MonthKey]int) model.CrimeAggregate {
	categories := make([]string, len(pool))
	streets := make([]string, len(pool))
	outcomes := make([]string, len(pool))
	for i, inc := range pool {
		categories[i] = inc.CategoryName()
		streets[i] = inc.StreetName()
		outcomes[i] = inc.OutcomeCategory()
	}

	top := model.CountTallies(streets)
	if len(top) > topStreets {
		top = top[:topStreets]
	}

	counts := make(map[model.MonthKey]int, len(monthly))
	for k, v := range monthly {
		counts[k] = v
	}

	return model.CrimeAggregate{
		Total:         len(pool),
		ByCategory:    model.CountTallies(categories),
		TopStreets:    top,
		Outcomes:      model.CountTallies(outcomes),
		MonthlyCounts: counts,
		Trend:         ComputeTrend(counts),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
