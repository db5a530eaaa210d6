// Package extract turns one raw listing document into a canonical record by
// running an ordered set of source layers through a merge reducer.
package extract

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

// Engine runs layers over documents. It holds no per-document state and is
// safe for concurrent use.
type Engine struct {
	layers     []Layer
	repairJSON bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithJSONRepair lets the structured layers pass malformed embedded JSON
// through a repairer before giving up.
func WithJSONRepair(enabled bool) Option {
	return func(e *Engine) { e.repairJSON = enabled }
}

// WithLayers replaces the default layer list.
func WithLayers(layers ...Layer) Option {
	return func(e *Engine) { e.layers = layers }
}

// New creates an Engine with the default layers.
func New(opts ...Option) *Engine {
	e := &Engine{layers: DefaultLayers()}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultEngine = New()

// ExtractFields extracts a record from doc with the default engine and no
// points-of-interest payload.
func ExtractFields(doc model.Document) model.Record {
	return defaultEngine.Extract(doc, nil)
}

// Extract runs every layer over doc and returns the pruned record. It never
// fails: a malformed layer contributes nothing.
func (e *Engine) Extract(doc model.Document, poi []model.Point) model.Record {
	in := Input{
		Raw:        doc.Raw,
		Text:       doc.Text,
		POI:        poi,
		RepairJSON: e.repairJSON,
	}
	if !doc.HasText() {
		in.Text = Textify(doc.Raw)
	}
	in.Text = normalize.Spaces(in.Text)

	rec := make(model.Record)
	for _, l := range e.layers {
		res := runLayer(l, in)
		if res.Err != nil {
			zap.L().Debug("extract: layer skipped",
				zap.String("layer", l.Name),
				zap.Error(res.Err),
			)
			continue
		}
		apply(rec, res.Fields)
	}

	finalize(rec)
	return rec.Prune()
}

func runLayer(l Layer, in Input) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: eris.Errorf("extract: layer %s panicked: %v", l.Name, r)}
		}
	}()
	return l.Run(in)
}

// finalize applies the normalization that runs regardless of which layer
// supplied a value.
func finalize(rec model.Record) {
	if price := rec.String(model.FieldPrice); price != "" {
		if m, ok := normalize.Money(price); ok {
			rec[model.FieldPrice] = m
		}
	}
	if size, ok := rec[model.FieldSizeSqFeet].(string); ok {
		rec[model.FieldSizeSqFeet] = normalize.StripThousands(size)
	}
	if !rec.Has(model.FieldAddress) && rec.Has(model.FieldDisplayAddress) {
		rec[model.FieldAddress] = rec[model.FieldDisplayAddress]
	}
}
