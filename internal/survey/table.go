package survey

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TimestampColumn is the canonical name given to the submission time column
const TimestampColumn = "data_hora_registro"

// Record is one survey submission, aligned with the table columns
type Record []Value

// Table is the ordered set of records of one load cycle. A Table is never
// mutated after construction; transformations return a new Table.
type Table struct {
	columns []string
	index   map[string]int
	records []Record
}

// NewTable builds a table. Records shorter than the header are padded with
// Missing cells and longer ones are truncated.
func NewTable(columns []string, records []Record) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		records: make([]Record, 0, len(records)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for _, rec := range records {
		row := make(Record, len(t.columns))
		copy(row, rec)
		t.records = append(t.records, row)
	}
	return t
}

// EmptyTable returns a table with no columns and no records
func EmptyTable() *Table {
	return NewTable(nil, nil)
}

// Columns returns a copy of the column names in source order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.records)
}

// IsEmpty reports whether the table has no records
func (t *Table) IsEmpty() bool {
	return len(t.records) == 0
}

// Records returns the records. Callers must not modify them.
func (t *Table) Records() []Record {
	return t.records
}

// Record returns the i-th record
func (t *Table) Record(i int) Record {
	return t.records[i]
}

// ColumnIndex looks a column up by exact name, falling back to a
// case-insensitive comparison of the NFC forms.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if i, ok := t.index[name]; ok {
		return i, true
	}
	want := foldName(name)
	for i, c := range t.columns {
		if foldName(c) == want {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// ColumnName resolves a requested name to the stored column name
func (t *Table) ColumnName(name string) (string, bool) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return "", false
	}
	return t.columns[i], true
}

// Column returns the cells of one column in record order
func (t *Table) Column(name string) ([]Value, error) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fieldNotFound(name)
	}
	out := make([]Value, len(t.records))
	for r, rec := range t.records {
		out[r] = rec[i]
	}
	return out, nil
}

// Get returns the cell of a record by column name
func (t *Table) Get(row int, column string) (Value, bool) {
	i, ok := t.ColumnIndex(column)
	if !ok || row < 0 || row >= len(t.records) {
		return Missing(), false
	}
	return t.records[row][i], true
}

// Timestamp returns the submission time text of a record, if the table has
// a timestamp column and the cell is present.
func (t *Table) Timestamp(row int) (string, bool) {
	v, ok := t.Get(row, TimestampColumn)
	if !ok || v.IsMissing() {
		return "", false
	}
	return v.String(), true
}

// Without returns a table without the named columns. Unknown names are ignored.
func (t *Table) Without(columns ...string) *Table {
	drop := make(map[int]bool, len(columns))
	for _, c := range columns {
		if i, ok := t.ColumnIndex(c); ok {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return t
	}

	keep := make([]int, 0, len(t.columns))
	names := make([]string, 0, len(t.columns))
	for i, c := range t.columns {
		if !drop[i] {
			keep = append(keep, i)
			names = append(names, c)
		}
	}
	records := make([]Record, len(t.records))
	for r, rec := range t.records {
		row := make(Record, len(keep))
		for j, i := range keep {
			row[j] = rec[i]
		}
		records[r] = row
	}
	return NewTable(names, records)
}

// Select returns a table holding only the given record indexes, in order
func (t *Table) Select(rows []int) *Table {
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		if r >= 0 && r < len(t.records) {
			records = append(records, t.records[r])
		}
	}
	return NewTable(t.columns, records)
}

// Map returns a new table where every cell went through fn
func (t *Table) Map(fn func(column string, v Value) Value) *Table {
	records := make([]Record, len(t.records))
	for r, rec := range t.records {
		row := make(Record, len(rec))
		for i, v := range rec {
			row[i] = fn(t.columns[i], v)
		}
		records[r] = row
	}
	return NewTable(t.columns, records)
}

// Strings renders the records as string rows, Missing as ""
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.records))
	for r, rec := range t.records {
		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = v.String()
		}
		out[r] = row
	}
	return out
}

func foldName(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
