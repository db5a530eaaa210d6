// Package preprocess turns enriched property records into the run-ready
// table: selected and renamed columns, imputed gaps, coerced numbers,
// cleaned text, and numeric helper columns.
package preprocess

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

// Stats reports what cleaning changed.
type Stats struct {
	Rows    int
	Columns int
	// Imputed counts filled cells per column.
	Imputed map[string]int
	// Coerced counts values per numeric column that failed to parse.
	Coerced map[string]int
}

// Metrics flattens the stats for ledger stage results.
func (s Stats) Metrics() map[string]int {
	m := map[string]int{"rows": s.Rows, "columns": s.Columns}
	for col, n := range s.Imputed {
		m["imputed_"+col] = n
	}
	for col, n := range s.Coerced {
		m["coerced_null_"+col] = n
	}
	return m
}

// Clean builds the run-ready table from records.
func Clean(records []model.Record, s Schema) (*Table, Stats) {
	stats := Stats{Rows: len(records), Imputed: map[string]int{}, Coerced: map[string]int{}}

	renames := make(map[string]string, len(s.Renames))
	for _, r := range s.Renames {
		renames[r.From] = r.To
	}

	t := &Table{Rows: make([]map[string]any, len(records))}
	var sources []string
	for _, col := range s.Columns {
		if !anyHas(records, col) {
			continue
		}
		sources = append(sources, col)
		out := col
		if to, ok := renames[col]; ok {
			out = to
		}
		t.Columns = append(t.Columns, out)
	}
	for i, rec := range records {
		row := make(map[string]any, len(t.Columns))
		for j, src := range sources {
			row[t.Columns[j]] = rec[src]
		}
		t.Rows[i] = row
	}
	has := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		has[c] = true
	}

	for _, col := range s.ImputeMode {
		if !has[col] {
			continue
		}
		if n := imputeMode(t, col); n > 0 {
			stats.Imputed[col] = n
			zap.L().Debug("preprocess: filled missing values with mode", zap.String("column", col), zap.Int("cells", n))
		}
	}

	for _, col := range s.Numeric {
		if !has[col] {
			continue
		}
		for _, row := range t.Rows {
			if row[col] == nil {
				continue
			}
			f, ok := toNumber(row[col])
			if !ok {
				row[col] = nil
				stats.Coerced[col]++
				continue
			}
			row[col] = f
		}
	}

	for _, col := range s.Text {
		if !has[col] {
			continue
		}
		for _, row := range t.Rows {
			if str, ok := row[col].(string); ok {
				row[col] = normalize.CleanSpace(str)
			}
		}
	}

	for _, h := range s.Helpers {
		if !has[h.Source] {
			continue
		}
		t.Columns = append(t.Columns, h.Name)
		has[h.Name] = true
		for _, row := range t.Rows {
			row[h.Name] = helperValue(row[h.Source], h.Kind)
		}
	}

	stats.Columns = len(t.Columns)
	return t, stats
}

func anyHas(records []model.Record, col string) bool {
	for _, r := range records {
		if _, ok := r[col]; ok {
			return true
		}
	}
	return false
}

// imputeMode fills nil cells of col with its most frequent value. Ties go
// to the smallest value.
func imputeMode(t *Table, col string) int {
	type bucket struct {
		val   any
		count int
	}
	buckets := map[string]*bucket{}
	missing := 0
	for _, row := range t.Rows {
		v := row[col]
		if v == nil {
			missing++
			continue
		}
		key := fmt.Sprintf("%T|%v", v, v)
		if b, ok := buckets[key]; ok {
			b.count++
		} else {
			buckets[key] = &bucket{val: v, count: 1}
		}
	}
	if missing == 0 || len(buckets) == 0 {
		return 0
	}

	all := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return less(all[i].val, all[j].val)
	})
	mode := all[0].val
	for _, row := range t.Rows {
		if row[col] == nil {
			row[col] = mode
		}
	}
	return missing
}

func less(a, b any) bool {
	fa, okA := numeric(a)
	fb, okB := numeric(b)
	if okA && okB {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// numeric reports the value of a non-string number.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toNumber coerces a cell to a finite float64.
func toNumber(v any) (float64, bool) {
	f, ok := numeric(v)
	if !ok {
		s, isStr := v.(string)
		if !isStr {
			return 0, false
		}
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func helperValue(v any, kind HelperKind) any {
	f, ok := toNumber(v)
	if v == nil || !ok {
		return nil
	}
	if kind == HelperInt {
		if f != math.Trunc(f) {
			return nil
		}
		return int64(f)
	}
	return f
}
