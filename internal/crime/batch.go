package crime

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// Target is one location to profile.
type Target struct {
	Address  string
	Postcode string
	Lat      float64
	Lng      float64
}

// Summarize aggregates one target and pairs the result with its sentence.
func Summarize(ctx context.Context, agg *Aggregator, t Target) model.CrimeSummary {
	a := agg.Aggregate(ctx, t.Lat, t.Lng)
	return model.CrimeSummary{
		Address:   t.Address,
		Postcode:  t.Postcode,
		Lat:       t.Lat,
		Lng:       t.Lng,
		Summary:   BuildSummary(t.Address, t.Postcode, a),
		Aggregate: a,
	}
}

// AggregateAll summarizes every target, at most concurrency at a time.
// Results keep the order of targets. Each target's own month fetches stay
// sequential and paced.
func AggregateAll(ctx context.Context, agg *Aggregator, targets []Target, concurrency int) []model.CrimeSummary {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([]model.CrimeSummary, len(targets))

	if concurrency == 1 {
		for i, t := range targets {
			out[i] = Summarize(ctx, agg, t)
			logProgress(i+1, len(targets), t)
		}
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, t := range targets {
		g.Go(func() error {
			out[i] = Summarize(gctx, agg, t)
			logProgress(i+1, len(targets), t)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func logProgress(n, total int, t Target) {
	zap.L().Info("crime: summarized",
		zap.Int("n", n),
		zap.Int("total", total),
		zap.String("address", t.Address),
	)
}
