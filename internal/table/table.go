package table

import (
	"fmt"
	"strings"
)

// Table is an immutable, column-ordered grid of string cells. An empty cell
// is treated as missing. Operations return new tables and never mutate the
// receiver, so a loaded Table may be shared freely between sessions.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Table from a header and row records. Rows shorter than the
// header are padded with missing cells; longer rows are truncated.
func New(columns []string, rows [][]string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	t := &Table{columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	t.rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		t.rows = append(t.rows, normalizeRow(r, len(cols)))
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return New(nil, nil) }

func normalizeRow(rec []string, ncol int) []string {
	row := make([]string, ncol)
	copy(row, rec)
	return row
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumRows reports the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols reports the column count.
func (t *Table) NumCols() int { return len(t.columns) }

// IsEmpty is true when the table has no columns or no rows.
func (t *Table) IsEmpty() bool { return len(t.columns) == 0 || len(t.rows) == 0 }

// Has reports whether a column with the exact name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[idx]
	}
	return out, true
}

// Cell returns the value at row i of the named column.
func (t *Table) Cell(i int, name string) string {
	idx, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][idx]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	copy(out, t.rows[i])
	return out
}

// Where keeps the rows whose mask entry is true, preserving order.
func (t *Table) Where(mask []bool) *Table {
	out := &Table{columns: t.columns, index: t.index}
	for i, r := range t.rows {
		if i < len(mask) && mask[i] {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= len(t.rows) {
		n = len(t.rows)
	}
	return &Table{columns: t.columns, index: t.index, rows: t.rows[:n:n]}
}

// Select returns a table with only the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idxs := make([]int, len(names))
	for i, n := range names {
		idx, ok := t.index[n]
		if !ok {
			return nil, fmt.Errorf("select: unknown column %q", n)
		}
		idxs[i] = idx
	}
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		nr := make([]string, len(idxs))
		for j, idx := range idxs {
			nr[j] = r[idx]
		}
		rows[i] = nr
	}
	return New(names, rows), nil
}

// String renders the table as aligned plain text, mainly for debugging.
func (t *Table) String() string {
	var b strings.Builder
	_ = WriteText(&b, t, 0, 0)
	return b.String()
}
