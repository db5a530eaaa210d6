package extract

import (
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// MergePolicy decides whether an assignment may replace an existing value.
type MergePolicy int

const (
	// SetIfAbsent only fills keys that are not yet set.
	SetIfAbsent MergePolicy = iota
	// Overwrite replaces whatever an earlier layer set.
	Overwrite
)

func (p MergePolicy) String() string {
	if p == Overwrite {
		return "overwrite"
	}
	return "set_if_absent"
}

// Assignment is one key/value proposed by a layer.
type Assignment struct {
	Key    string
	Value  any
	Policy MergePolicy
}

// Partial is the ordered list of assignments a layer produced.
type Partial []Assignment

// Set appends a SetIfAbsent assignment.
func (p *Partial) Set(key string, value any) {
	*p = append(*p, Assignment{Key: key, Value: value, Policy: SetIfAbsent})
}

// Overwrite appends an Overwrite assignment.
func (p *Partial) Overwrite(key string, value any) {
	*p = append(*p, Assignment{Key: key, Value: value, Policy: Overwrite})
}

// Keys returns the assigned keys in order.
func (p Partial) Keys() []string {
	out := make([]string, len(p))
	for i, a := range p {
		out[i] = a.Key
	}
	return out
}

// Lookup returns the last value assigned to key.
func (p Partial) Lookup(key string) (any, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return nil, false
}

// Input is what every layer sees for one document.
type Input struct {
	// Raw is the unprocessed document.
	Raw string
	// Text is the visible-text rendering, already derived when the document
	// did not carry one.
	Text string
	// POI is an optional pre-fetched points-of-interest payload.
	POI []model.Point
	// RepairJSON lets structured layers attempt to repair malformed blocks.
	RepairJSON bool
}

// Result is a layer's typed outcome. A non-nil Err marks the source as
// malformed; its Fields are discarded.
type Result struct {
	Fields Partial
	Err    error
}

// Layer is a named extraction rule-set.
type Layer struct {
	Name string
	Run  func(in Input) Result
}

// Layer names in priority order.
const (
	LayerAdTargeting      = "ad_targeting"
	LayerLDJSON           = "ld_json"
	LayerVisibleText      = "visible_text"
	LayerLocationArrays   = "location_arrays"
	LayerPointsOfInterest = "points_of_interest"
)

// DefaultLayers returns the layers in priority order.
func DefaultLayers() []Layer {
	return []Layer{
		{Name: LayerAdTargeting, Run: adTargeting},
		{Name: LayerLDJSON, Run: ldJSON},
		{Name: LayerVisibleText, Run: visibleText},
		{Name: LayerLocationArrays, Run: locationArrays},
		{Name: LayerPointsOfInterest, Run: pointsOfInterest},
	}
}

// apply folds a partial into rec. Empty values never reach the record.
func apply(rec model.Record, fields Partial) {
	for _, a := range fields {
		if model.IsEmpty(a.Value) {
			continue
		}
		switch a.Policy {
		case Overwrite:
			rec[a.Key] = a.Value
		default:
			if !rec.Has(a.Key) {
				rec[a.Key] = a.Value
			}
		}
	}
}
