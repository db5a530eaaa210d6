package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Asif-shah786/zoopla-scraper/internal/preprocess"
)

// SheetName is the worksheet holding run-ready rows.
const SheetName = "run_ready"

// WriteTableXLSX writes a run-ready table as a single-sheet workbook with a
// header row. Numbers and booleans keep their cell types.
func WriteTableXLSX(path string, t *preprocess.Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: xlsx add sheet")
	}

	header := sheet.AddRow()
	for _, c := range t.Columns {
		header.AddCell().SetString(c)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, c := range t.Columns {
			setCell(row.AddCell(), r[c])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch t := v.(type) {
	case nil:
	case float64:
		cell.SetFloat(t)
	case int64:
		cell.SetInt64(t)
	case int:
		cell.SetInt(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			cell.SetFloat(f)
		} else {
			cell.SetString(t.String())
		}
	case bool:
		cell.SetBool(t)
	default:
		cell.SetString(cellString(t))
	}
}
