package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
	"github.com/Asif-shah786/zoopla-scraper/internal/match"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/pkg/geocode"
)

// Geocoded columns written alongside the coordinates.
const (
	FieldPostcodeGeo   = "postcode_geo"
	FieldCityGeo       = "city_geo"
	FieldCountyGeo     = "county_geo"
	FieldStateGeo      = "state_geo"
	FieldGeoFormatted  = "geo_formatted"
	FieldGeoResultType = "geo_result_type"
)

// EnrichStats counts what the crime stage saw.
type EnrichStats struct {
	Records          int
	GeocodeAttempted int
	Geocoded         int
	GeocodeFailed    int
	WithPOI          int
	Targets          int
	SkippedNoCoords  int
	Summaries        int
	Unmatched        int
}

// Metrics returns the counts as stage metrics.
func (s EnrichStats) Metrics() map[string]int {
	return map[string]int{
		"records":           s.Records,
		"geocode_attempted": s.GeocodeAttempted,
		"geocoded":          s.Geocoded,
		"geocode_failed":    s.GeocodeFailed,
		"with_poi":          s.WithPOI,
		"targets":           s.Targets,
		"skipped_no_coords": s.SkippedNoCoords,
		"summaries":         s.Summaries,
		"unmatched":         s.Unmatched,
	}
}

// Enrich geocodes records without coordinates, attaches nearby points of
// interest, aggregates crime around every located record, and merges the
// summaries back. Input records are
// not mutated.
func (p *Pipeline) Enrich(ctx context.Context, records []model.Record) ([]model.Record, []model.CrimeSummary, EnrichStats) {
	stats := EnrichStats{Records: len(records)}
	located := p.geocodeMissing(ctx, records, &stats)
	p.attachPOI(ctx, located, &stats)

	targets, skipped := crimeTargets(located)
	stats.Targets = len(targets)
	stats.SkippedNoCoords = skipped

	summaries := crime.AggregateAll(ctx, p.agg, targets, p.opts.Concurrency)
	if r := p.opts.RadiusKm; r > 0 && r != crime.DefaultRadiusKm {
		for i := range summaries {
			s := &summaries[i]
			s.Summary = crime.BuildSummaryRadius(s.Address, s.Postcode, s.Aggregate, r)
		}
	}
	stats.Summaries = len(summaries)

	enriched, unmatched := match.MatchAndMerge(located, summaries)
	stats.Unmatched = unmatched
	if unmatched > 0 {
		zap.L().Warn("pipeline: crime summaries without a matching record", zap.Int("unmatched", unmatched))
	}
	return enriched, summaries, stats
}

// geocodeMissing returns copies of records, with coordinates and geocoded
// columns filled for those that had an address but no coordinates. A
// quota error stops further lookups.
func (p *Pipeline) geocodeMissing(ctx context.Context, records []model.Record, stats *EnrichStats) []model.Record {
	out := make([]model.Record, len(records))
	stopped := p.geocoder == nil
	for i, r := range records {
		rec := r.Clone()
		out[i] = rec
		if stopped {
			continue
		}
		if _, _, ok := rec.Coordinates(); ok {
			continue
		}
		addr := rec.Address()
		if addr == "" {
			continue
		}

		stats.GeocodeAttempted++
		res, err := p.geocoder.Geocode(ctx, addr)
		if err != nil {
			stats.GeocodeFailed++
			if eris.Is(err, geocode.ErrQuotaExceeded) || ctx.Err() != nil {
				zap.L().Error("pipeline: geocoding stopped", zap.Error(err))
				stopped = true
				continue
			}
			zap.L().Warn("pipeline: geocode failed", zap.String("address", addr), zap.Error(err))
			continue
		}
		if res == nil || !res.Matched {
			stats.GeocodeFailed++
			continue
		}
		applyGeo(rec, res)
		stats.Geocoded++
	}
	return out
}

// attachPOI replaces the nearest_schools and nearest_stations fields of
// located records with the points-of-interest service's answer.
func (p *Pipeline) attachPOI(ctx context.Context, records []model.Record, stats *EnrichStats) {
	if p.poi == nil {
		return
	}
	for _, rec := range records {
		lat, lng, ok := rec.Coordinates()
		if !ok {
			continue
		}
		pts, err := p.poi.Nearby(ctx, lng, lat, p.opts.POILimit)
		if err != nil {
			zap.L().Debug("pipeline: points of interest unavailable", zap.Error(err))
			continue
		}
		fields := p.engine.Extract(model.Document{}, pts)
		if len(fields) == 0 {
			continue
		}
		for k, v := range fields {
			rec[k] = v
		}
		stats.WithPOI++
	}
}

func applyGeo(rec model.Record, g *model.GeoResult) {
	rec[model.FieldLatitude] = g.Latitude
	rec[model.FieldLongitude] = g.Longitude
	for k, v := range map[string]string{
		FieldPostcodeGeo:   g.Postcode,
		FieldCityGeo:       g.City,
		FieldCountyGeo:     g.County,
		FieldStateGeo:      g.State,
		FieldGeoFormatted:  g.Formatted,
		FieldGeoResultType: g.ResultType,
	} {
		if v != "" {
			rec[k] = v
		}
	}
}

// unnamedAddress labels a located record that has neither address nor title.
const unnamedAddress = "This property"

// crimeTargets builds one aggregation target per record with usable
// coordinates and reports how many records were skipped. A zero latitude or
// longitude counts as missing.
func crimeTargets(records []model.Record) ([]crime.Target, int) {
	var (
		targets []crime.Target
		skipped int
	)
	for _, r := range records {
		lat, lng, ok := r.Coordinates()
		if !ok || lat == 0 || lng == 0 {
			skipped++
			continue
		}
		address := r.Address()
		if address == "" {
			address = r.String(model.FieldTitle)
		}
		if address == "" {
			address = unnamedAddress
		}
		postcode := r.String(model.FieldOutcode)
		if postcode == "" {
			postcode = r.String(model.FieldPostcode)
		}
		targets = append(targets, crime.Target{
			Address:  address,
			Postcode: postcode,
			Lat:      lat,
			Lng:      lng,
		})
	}
	return targets, skipped
}
