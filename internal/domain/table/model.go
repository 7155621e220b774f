package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CellKind identifies the type of value a cell holds.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
)

// Cell is a single scalar value in a column.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Empty returns a missing cell.
func Empty() Cell {
	return Cell{Kind: KindEmpty}
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// Number returns a numeric cell.
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, Number: f}
}

// IsEmpty reports whether the cell is missing.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// String coerces the cell to text. Numbers use the shortest decimal form.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value: nil, string or float64.
func (c Cell) Value() any {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return c.Number
	default:
		return nil
	}
}

// FromValue converts a plain Go value into a cell.
func FromValue(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return val
	case string:
		return Text(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Number(f)
		}
		return Text(val.String())
	case bool:
		return Text(strconv.FormatBool(val))
	default:
		return Text(fmt.Sprint(val))
	}
}

// MarshalJSON encodes empty cells as null, text as a string and numbers as numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*c = FromValue(v)
	return nil
}

// Column is a named sequence of cells.
type Column struct {
	Name   string `json:"name"`
	Values []Cell `json:"values"`
}

// Table is an ordered set of equally long columns.
type Table struct {
	Columns []Column `json:"columns"`
}

// New builds a table from a header and row-major values. Short rows are padded with
// empty cells and long rows are truncated to the header width.
func New(header []string, rows [][]Cell) Table {
	t := Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		values := make([]Cell, len(rows))
		for r, row := range rows {
			if i < len(row) {
				values[r] = row[i]
			} else {
				values[r] = Empty()
			}
		}
		t.Columns[i] = Column{Name: name, Values: values}
	}
	return t
}

// Validate checks that every column has the same number of values.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return nil
	}
	want := len(t.Columns[0].Values)
	for _, col := range t.Columns[1:] {
		if len(col.Values) != want {
			return fmt.Errorf("%w: column %q has %d values, expected %d", ErrRaggedTable, col.Name, len(col.Values), want)
		}
	}
	return nil
}

// RowCount returns the number of rows.
func (t Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the first column with the given name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Row returns the cells of row i in column order.
func (t Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for c, col := range t.Columns {
		row[c] = col.Values[i]
	}
	return row
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{Columns: make([]Column, len(t.Columns))}
	for i, col := range t.Columns {
		values := make([]Cell, len(col.Values))
		copy(values, col.Values)
		out.Columns[i] = Column{Name: col.Name, Values: values}
	}
	return out
}

// InsertColumn places col at position idx, shifting later columns right.
func (t *Table) InsertColumn(idx int, col Column) error {
	if idx < 0 || idx > len(t.Columns) {
		return fmt.Errorf("insert column %q: index %d out of range", col.Name, idx)
	}
	if len(t.Columns) > 0 && len(col.Values) != t.RowCount() {
		return fmt.Errorf("%w: column %q has %d values, expected %d", ErrRaggedTable, col.Name, len(col.Values), t.RowCount())
	}
	t.Columns = append(t.Columns, Column{})
	copy(t.Columns[idx+1:], t.Columns[idx:])
	t.Columns[idx] = col
	return nil
}

// RemoveColumn drops every column with the given name and reports how many were removed.
func (t *Table) RemoveColumn(name string) int {
	kept := t.Columns[:0]
	removed := 0
	for _, col := range t.Columns {
		if col.Name == name {
			removed++
			continue
		}
		kept = append(kept, col)
	}
	t.Columns = kept
	return removed
}

// Sheet is a named table inside a TableSet.
type Sheet struct {
	Name  string `json:"name"`
	Table Table  `json:"table"`
}

// TableSet maps sheet names to tables, keeping insertion order.
type TableSet struct {
	Sheets []Sheet `json:"sheets"`
}

// Names returns the sheet names in order.
func (s TableSet) Names() []string {
	names := make([]string, len(s.Sheets))
	for i, sh := range s.Sheets {
		names[i] = sh.Name
	}
	return names
}

// Len returns the number of sheets.
func (s TableSet) Len() int {
	return len(s.Sheets)
}

// Sheet looks up a table by sheet name.
func (s TableSet) Sheet(name string) (Table, bool) {
	for _, sh := range s.Sheets {
		if sh.Name == name {
			return sh.Table, true
		}
	}
	return Table{}, false
}

// MustSheet is Sheet returning ErrSheetNotFound on a miss.
func (s TableSet) MustSheet(name string) (Table, error) {
	t, ok := s.Sheet(name)
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return t, nil
}

// Set replaces the named sheet in place, or appends it when new.
func (s *TableSet) Set(name string, t Table) {
	for i, sh := range s.Sheets {
		if sh.Name == name {
			s.Sheets[i].Table = t
			return
		}
	}
	s.Sheets = append(s.Sheets, Sheet{Name: name, Table: t})
}

// Clone returns a deep copy.
func (s TableSet) Clone() TableSet {
	out := TableSet{Sheets: make([]Sheet, len(s.Sheets))}
	for i, sh := range s.Sheets {
		out.Sheets[i] = Sheet{Name: sh.Name, Table: sh.Table.Clone()}
	}
	return out
}
