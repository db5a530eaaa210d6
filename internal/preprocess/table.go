package preprocess

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Table is a column-ordered set of rows. Every row has every column; a
// missing value is nil.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// MarshalJSON writes the rows as an array of objects in column order.
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range t.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(col)
			buf.Write(k)
			buf.WriteByte(':')
			v, err := json.Marshal(row[col])
			if err != nil {
				return nil, eris.Wrapf(err, "preprocess: encode column %s", col)
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Value returns the cell at row i, column col.
func (t *Table) Value(i int, col string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][col]
}
