package export

import (
	"bytes"
	"encoding/csv"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/preprocess"
)

// RecordColumns returns the sorted union of keys across records.
func RecordColumns(records []model.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// WriteRecordsCSV writes records under the sorted union of their keys.
// Nothing is written for an empty slice.
func WriteRecordsCSV(path string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols := RecordColumns(records)
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cellString(r[c])
		}
		rows[i] = row
	}
	return writeCSV(path, cols, rows)
}

// WriteTableCSV writes a run-ready table in column order.
func WriteTableCSV(path string, t *preprocess.Table) error {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = cellString(r[c])
		}
		rows[i] = row
	}
	return writeCSV(path, t.Columns, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrap(err, "export: csv rows")
	}
	return writeFile(path, buf.Bytes())
}
