package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/preprocess"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scraped_data.json")
	recs := []model.Record{{"price": "450000", "agent": "Smith & Co", "crime_summary": "🟢 Low crime"}}
	require.NoError(t, WriteJSON(path, recs))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Smith & Co", "no HTML escaping")
	assert.Contains(t, string(raw), "\n  {", "indented")

	var back []model.Record
	require.NoError(t, ReadJSON(path, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "450000", back[0].String("price"))
}

func TestReadJSON_Missing(t *testing.T) {
	var v any
	err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &v)
	require.Error(t, err)
}

func TestWriteRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraped_data.csv")
	recs := []model.Record{
		{"price": "450000", "about_property": "Line one\nLine two\r\n", "bedrooms": 3},
		{"title": "Flat", "has_epc": "True", "crime_data": &model.CrimeAggregate{Total: 2, Trend: model.TrendStable}},
	}
	require.NoError(t, WriteRecordsCSV(path, recs))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"about_property", "bedrooms", "crime_data", "has_epc", "price", "title"}, rows[0])
	assert.Equal(t, "Line one; Line two; ", rows[1][0])
	assert.Equal(t, "3", rows[1][1])
	assert.Equal(t, "", rows[1][2])
	assert.True(t, strings.HasPrefix(rows[2][2], `{"total":2`))
}

func TestWriteRecordsCSV_EmptyWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteRecordsCSV(path, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func sampleTable() *preprocess.Table {
	return &preprocess.Table{
		Columns: []string{"property_id", "price", "bedrooms_int", "chain_free", "description"},
		Rows: []map[string]any{
			{"property_id": "1", "price": 450000.0, "bedrooms_int": int64(3), "chain_free": true, "description": "Nice\nhome"},
			{"property_id": "2", "price": nil, "bedrooms_int": nil, "chain_free": nil, "description": nil},
		},
	}
}

func TestWriteTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_ready.csv")
	require.NoError(t, WriteTableCSV(path, sampleTable()))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, sampleTable().Columns, rows[0])
	assert.Equal(t, []string{"1", "450000", "3", "True", "Nice; home"}, rows[1])
	assert.Equal(t, []string{"2", "", "", "", ""}, rows[2])
}

func TestWriteTableXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_ready.xlsx")
	require.NoError(t, WriteTableXLSX(path, sampleTable()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "property_id", sheet.Rows[0].Cells[0].String())
	price, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 450000.0, price)
	beds, err := sheet.Rows[1].Cells[2].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(3), beds)
	assert.True(t, sheet.Rows[1].Cells[3].Bool())
	assert.Equal(t, "Nice; home", sheet.Rows[1].Cells[4].String())
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "False", cellString(false))
	assert.Equal(t, "0.5", cellString(0.5))
	assert.Equal(t, "12", cellString(12))
	assert.Equal(t, `["a","b"]`, cellString([]string{"a", "b"}))
}
