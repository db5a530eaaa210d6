// Package match attaches crime summaries to the property records they were
// computed for.
package match

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

type coordKey struct {
	lat, lng float64
}

// Round5 rounds v to five decimal places, half away from zero.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// AddressKey normalizes an address for lookup.
func AddressKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// MatchAndMerge returns copies of records with each summary attached to the
// record it matches, and the number of summaries that found no record.
// Coordinates rounded to five decimals are tried first, then the normalized
// address. Each record takes at most one summary; a later summary that hits
// an already enriched record counts as unmatched. The inputs are not
// modified.
func MatchAndMerge(records []model.Record, summaries []model.CrimeSummary) ([]model.Record, int) {
	out := make([]model.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}

	byCoord := make(map[coordKey]int)
	byAddr := make(map[string]int)
	for i, r := range out {
		if lat, lng, ok := r.Coordinates(); ok {
			byCoord[coordKey{Round5(lat), Round5(lng)}] = i
		}
		if key := AddressKey(r.Address()); key != "" {
			byAddr[key] = i
		}
	}

	enriched := make([]bool, len(out))
	unmatched := 0
	for _, s := range summaries {
		idx, ok := byCoord[coordKey{Round5(s.Lat), Round5(s.Lng)}]
		if !ok {
			idx, ok = byAddr[AddressKey(s.Address)]
		}
		if !ok || enriched[idx] {
			unmatched++
			zap.L().Debug("match: summary unmatched",
				zap.String("address", s.Address),
				zap.Float64("lat", s.Lat),
				zap.Float64("lng", s.Lng),
			)
			continue
		}

		agg := s.Aggregate
		out[idx][model.FieldCrimeSummary] = s.Summary
		out[idx][model.FieldCrimeData] = &agg
		enriched[idx] = true
	}
	return out, unmatched
}
