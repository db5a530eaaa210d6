// Package pipeline runs the scrape, crime enrichment, and preprocessing
// stages of one run and writes their artifacts to a run directory.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/config"
	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
	"github.com/Asif-shah786/zoopla-scraper/internal/export"
	"github.com/Asif-shah786/zoopla-scraper/internal/extract"
	"github.com/Asif-shah786/zoopla-scraper/internal/fetcher"
	"github.com/Asif-shah786/zoopla-scraper/internal/ledger"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/preprocess"
)

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.GeoResult, error)
}

// POISource returns schools and transport near a coordinate.
type POISource interface {
	Nearby(ctx context.Context, lon, lat float64, limit int) ([]model.Point, error)
}

// Options configures a run.
type Options struct {
	SearchURL     string
	Query         string
	SearchSource  string
	Pages         int
	MaxProperties int
	RequestDelay  time.Duration
	POILimit      int
	Concurrency   int
	RadiusKm      float64
	RunsDir       string
	CSV           bool
	XLSX          bool
	Schema        preprocess.Schema
}

// OptionsFromConfig maps application config onto run options.
func OptionsFromConfig(cfg *config.Config, schema preprocess.Schema) Options {
	return Options{
		SearchURL:     cfg.Scrape.SearchURL,
		Query:         cfg.Scrape.Query,
		SearchSource:  cfg.Scrape.SearchSource,
		Pages:         cfg.Scrape.Pages,
		MaxProperties: cfg.Scrape.MaxProperties,
		RequestDelay:  time.Duration(cfg.Scrape.RequestDelayMs) * time.Millisecond,
		POILimit:      cfg.POI.Limit,
		Concurrency:   cfg.Crime.Concurrency,
		RadiusKm:      cfg.Police.RadiusKm,
		RunsDir:       cfg.Ledger.RunsDir,
		CSV:           cfg.Export.CSV,
		XLSX:          cfg.Export.XLSX,
		Schema:        schema,
	}
}

// Pipeline wires the collaborators of a run.
type Pipeline struct {
	opts     Options
	fetch    fetcher.Fetcher
	engine   *extract.Engine
	agg      *crime.Aggregator
	store    ledger.Store
	geocoder Geocoder
	poi      POISource
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New creates a pipeline. store may be nil to skip ledger persistence.
func New(opts Options, fetch fetcher.Fetcher, engine *extract.Engine, agg *crime.Aggregator, store ledger.Store) *Pipeline {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.RunsDir == "" {
		opts.RunsDir = "runs"
	}
	if len(opts.Schema.Columns) == 0 {
		opts.Schema = preprocess.DefaultSchema()
	}
	if engine == nil {
		engine = extract.New()
	}
	return &Pipeline{
		opts:   opts,
		fetch:  fetch,
		engine: engine,
		agg:    agg,
		store:  store,
		sleep:  sleepCtx,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetGeocoder enables geocoding of records that lack coordinates.
func (p *Pipeline) SetGeocoder(g Geocoder) {
	p.geocoder = g
}

// SetPOISource enables the points-of-interest lookup for located records.
func (p *Pipeline) SetPOISource(s POISource) {
	p.poi = s
}

// Run executes every stage in order. A failed stage stops the run; the
// summary is written either way and the first stage error is returned.
func (p *Pipeline) Run(ctx context.Context) (model.RunSummary, error) {
	number, dir, err := CreateRunDir(p.opts.RunsDir)
	if err != nil {
		return model.RunSummary{}, err
	}

	restore, err := config.TeeToFile(filepath.Join(dir, RunLogFile))
	if err != nil {
		zap.L().Warn("pipeline: run log unavailable", zap.Error(err))
	} else {
		defer restore()
	}

	run := p.startRun(ctx, number, dir)
	log := zap.L().With(zap.String("run_id", run.ID), zap.Int("run_number", number))
	log.Info("pipeline: starting run", zap.String("dir", dir))

	tracker := ledger.NewTracker(p.store, run,
		model.StageScraping, model.StageCrimeData, model.StagePreprocessing)

	var scraped, enriched []model.Record
	runErr := tracker.Track(ctx, model.StageScraping, func(ctx context.Context) (ledger.StageOutput, error) {
		recs, stats, err := p.Scrape(ctx)
		if err != nil {
			return ledger.StageOutput{Metrics: stats.Metrics()}, err
		}
		scraped = recs
		out, err := p.writeRecords(dir, ScrapedJSON, ScrapedCSV, recs)
		out.Metrics = stats.Metrics()
		return out, err
	})

	if runErr == nil {
		runErr = tracker.Track(ctx, model.StageCrimeData, func(ctx context.Context) (ledger.StageOutput, error) {
			recs, summaries, stats := p.Enrich(ctx, scraped)
			enriched = recs
			if err := export.WriteJSON(filepath.Join(dir, CrimeSummaries), summaries); err != nil {
				return ledger.StageOutput{Metrics: stats.Metrics()}, err
			}
			path := filepath.Join(dir, PropertiesCrime)
			if err := export.WriteJSON(path, recs); err != nil {
				return ledger.StageOutput{Metrics: stats.Metrics()}, err
			}
			return ledger.StageOutput{Artifact: path, Metrics: stats.Metrics()}, nil
		})
	}

	if runErr == nil {
		runErr = tracker.Track(ctx, model.StagePreprocessing, func(ctx context.Context) (ledger.StageOutput, error) {
			table, stats := preprocess.Clean(enriched, p.opts.Schema)
			path, err := p.writeTable(dir, table)
			return ledger.StageOutput{Artifact: path, Metrics: stats.Metrics()}, err
		})
	}

	summary := tracker.Finish(ctx)
	if err := export.WriteJSON(filepath.Join(dir, RunSummaryJSON), summary); err != nil {
		log.Error("pipeline: write run summary", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	return summary, runErr
}

func (p *Pipeline) startRun(ctx context.Context, number int, dir string) *model.Run {
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, number, dir)
		if err == nil {
			return run
		}
		zap.L().Warn("pipeline: ledger create run failed, continuing unrecorded", zap.Error(err))
	}
	now := p.now()
	return &model.Run{
		ID:        uuid.NewString(),
		Number:    number,
		Dir:       dir,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Pipeline) writeRecords(dir, jsonName, csvName string, recs []model.Record) (ledger.StageOutput, error) {
	path := filepath.Join(dir, jsonName)
	if err := export.WriteJSON(path, recs); err != nil {
		return ledger.StageOutput{}, err
	}
	if p.opts.CSV {
		if err := export.WriteRecordsCSV(filepath.Join(dir, csvName), recs); err != nil {
			return ledger.StageOutput{Artifact: path}, err
		}
	}
	return ledger.StageOutput{Artifact: path}, nil
}

func (p *Pipeline) writeTable(dir string, table *preprocess.Table) (string, error) {
	path := filepath.Join(dir, RunReadyJSON)
	if err := export.WriteJSON(path, table); err != nil {
		return "", err
	}
	if p.opts.CSV {
		if err := export.WriteTableCSV(filepath.Join(dir, RunReadyCSV), table); err != nil {
			return path, err
		}
	}
	if p.opts.XLSX {
		if err := export.WriteTableXLSX(filepath.Join(dir, RunReadyXLSX), table); err != nil {
			return path, eris.Wrap(err, "pipeline: run-ready workbook")
		}
	}
	return path, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
