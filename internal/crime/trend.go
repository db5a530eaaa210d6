package crime

import (
	"sort"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// trendThreshold is the relative change that separates rising or falling
// from stable.
const trendThreshold = 0.15

// ComputeTrend compares the newest three months with the three before them.
// Without a non-zero prior baseline the trend is stable.
func ComputeTrend(monthly map[model.MonthKey]int) model.Trend {
	keys := make([]string, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	n := len(keys)
	var last3, prev3 int
	if n >= 3 {
		for _, k := range keys[n-3:] {
			last3 += monthly[model.MonthKey(k)]
		}
	}
	if n >= 6 {
		for _, k := range keys[n-6 : n-3] {
			prev3 += monthly[model.MonthKey(k)]
		}
	}
	if prev3 <= 0 {
		return model.TrendStable
	}

	change := float64(last3-prev3) / float64(prev3)
	switch {
	case change > trendThreshold:
		return model.TrendRising
	case change < -trendThreshold:
		return model.TrendFalling
	default:
		return model.TrendStable
	}
}
