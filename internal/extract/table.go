// Package extract reads the raw CSV exports of a session: the wide
// per-participant-per-period table and the flat chat log. It also builds
// the validated column schema the builder navigates the wide table with,
// so malformed headers fail fast instead of surfacing as silent nulls deep
// inside per-row logic.
package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Table is one loaded CSV: a header index plus raw string rows. Cells are
// kept as strings; typed access goes through the Schema helpers.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// LoadTable reads a CSV table from r. The first record is the header.
func LoadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged exports; missing cells read as absent

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: empty input, no header row")
	}

	t := &Table{header: records[0], index: make(map[string]int, len(records[0]))}
	for i, name := range t.header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	t.rows = records[1:]
	return t, nil
}

// LoadTableFile reads a CSV table from disk.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Cell returns the value at (row, column name). Absent columns and cells
// past a short row both read as the empty string.
func (t *Table) Cell(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) || i >= len(t.rows[row]) {
		return ""
	}
	return t.rows[row][i]
}

// HasColumn reports whether the header contains the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Header returns the header row. Shared slice; do not modify.
func (t *Table) Header() []string {
	return t.header
}

// Float parses a cell as a float. Empty cells return nil; "0" parses to a
// valid zero, never to nil.
func Float(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Int parses a cell as an integer, accepting float-formatted integers
// ("3.0") as some exporters emit. Floats with a fractional part are
// rejected, not truncated. The second return is false for empty or
// unparseable cells.
func Int(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return int(f), true
	}
	return 0, false
}
