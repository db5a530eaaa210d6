package pipeline

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/extract"
	"github.com/Asif-shah786/zoopla-scraper/internal/fetcher"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

// ErrNoProperties is returned when a scrape yields no records.
var ErrNoProperties = eris.New("pipeline: no properties scraped")

// separatorFields have thousands separators stripped after extraction.
var separatorFields = []string{
	model.FieldPrice,
	model.FieldSizeSqFeet,
	model.FieldPricePerSqft,
	model.FieldBedrooms,
	model.FieldBathrooms,
	model.FieldReceptions,
}

// ScrapeStats counts what the scraping stage saw.
type ScrapeStats struct {
	Pages      int
	Discovered int
	Scraped    int
	Failed     int
}

// Metrics returns the counts as stage metrics.
func (s ScrapeStats) Metrics() map[string]int {
	return map[string]int{
		"pages":      s.Pages,
		"discovered": s.Discovered,
		"properties": s.Scraped,
		"failed":     s.Failed,
	}
}

// Scrape walks the search result pages, then fetches and extracts each
// listing until MaxProperties records are collected.
func (p *Pipeline) Scrape(ctx context.Context) ([]model.Record, ScrapeStats, error) {
	var stats ScrapeStats
	refs, referers, err := p.discover(ctx, &stats)
	if err != nil {
		return nil, stats, err
	}

	var records []model.Record
	for i, ref := range refs {
		if i > 0 {
			if err := p.sleep(ctx, p.opts.RequestDelay); err != nil {
				return records, stats, eris.Wrap(err, "pipeline: scrape interrupted")
			}
		}
		rec, err := p.scrapeListing(ctx, ref, referers[i])
		if err != nil {
			stats.Failed++
			zap.L().Warn("pipeline: listing fetch failed",
				zap.String("url", ref.URL),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
		stats.Scraped++
		zap.L().Info("pipeline: scraped listing",
			zap.Int("n", stats.Scraped),
			zap.Int("total", len(refs)),
			zap.String("property_id", rec.String(model.FieldPropertyID)),
		)
	}

	if len(records) == 0 {
		return nil, stats, ErrNoProperties
	}
	return records, stats, nil
}

// discover collects listing references across search pages. Each page is
// requested with the previous page as Referer. referers[i] is the search
// page refs[i] was found on.
func (p *Pipeline) discover(ctx context.Context, stats *ScrapeStats) ([]model.ListingRef, []string, error) {
	var (
		refs     []model.ListingRef
		referers []string
		seen     = make(map[string]bool)
		prev     string
	)
	for page := 1; page <= p.opts.Pages && !p.full(len(refs)); page++ {
		params := searchParams(p.opts, page)
		opts := make([]fetcher.RequestOption, 0, len(params)+1)
		for _, kv := range params {
			opts = append(opts, fetcher.WithQuery(kv[0], kv[1]))
		}
		if prev != "" {
			opts = append(opts, fetcher.WithReferer(prev))
		}
		body, err := p.fetch.Fetch(ctx, p.opts.SearchURL, opts...)
		if err != nil {
			if page == 1 {
				return nil, nil, eris.Wrap(err, "pipeline: search page 1")
			}
			zap.L().Warn("pipeline: search page failed, stopping discovery",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		stats.Pages++
		pageURL := searchPageURL(p.opts.SearchURL, params)

		found := extract.ListingURLs(body, page)
		zap.L().Info("pipeline: search page", zap.Int("page", page), zap.Int("listings", len(found)))
		for _, ref := range found {
			if seen[ref.PropertyID] || p.full(len(refs)) {
				continue
			}
			seen[ref.PropertyID] = true
			refs = append(refs, ref)
			referers = append(referers, pageURL)
		}
		prev = pageURL
	}
	stats.Discovered = len(refs)
	return refs, referers, nil
}

func (p *Pipeline) full(n int) bool {
	return p.opts.MaxProperties > 0 && n >= p.opts.MaxProperties
}

func (p *Pipeline) scrapeListing(ctx context.Context, ref model.ListingRef, referer string) (model.Record, error) {
	var opts []fetcher.RequestOption
	if referer != "" {
		opts = append(opts, fetcher.WithReferer(referer))
	}
	body, err := p.fetch.Fetch(ctx, ref.URL, opts...)
	if err != nil {
		return nil, err
	}

	rec := p.engine.Extract(model.Document{Raw: body}, nil)
	withMetadata(rec, ref)
	stripSeparators(rec)
	return rec.Prune(), nil
}

// withMetadata stamps the discovery details on a scraped record. property_id
// falls back to the listing id from the page.
func withMetadata(rec model.Record, ref model.ListingRef) {
	rec[model.FieldPage] = ref.Page
	rec[model.FieldScrapedAt] = ref.ScrapedAt
	rec[model.FieldSource] = ref.Source
	rec[model.FieldPropertyURL] = ref.URL
	id := ref.PropertyID
	if id == "" {
		id = rec.String(model.FieldListingID)
	}
	rec[model.FieldPropertyID] = id
}

func stripSeparators(rec model.Record) {
	for _, f := range separatorFields {
		if s, ok := rec[f].(string); ok {
			rec[f] = normalize.StripThousands(s)
		}
	}
}

func searchParams(o Options, page int) [][2]string {
	return [][2]string{
		{"q", o.Query},
		{"search_source", o.SearchSource},
		{"pn", strconv.Itoa(page)},
	}
}

// searchPageURL renders the search URL the way the fetcher requests it, so
// it can serve as the next request's Referer.
func searchPageURL(base string, params [][2]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for _, kv := range params {
		q.Set(kv[0], kv[1])
	}
	u.RawQuery = q.Encode()
	return u.String()
}
