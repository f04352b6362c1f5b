package survey

import (
	"sort"
	"strings"
)

// IDColumn is a row identifier some exports carry; it is never filterable
const IDColumn = "id"

// FilterableFields returns the columns offered in the query view
func FilterableFields(t *Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if c == TimestampColumn || foldName(c) == IDColumn {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DistinctValues returns the sorted non-blank values of a field
func DistinctValues(t *Table, field string) ([]string, error) {
	cells, err := t.Column(field)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, v := range cells {
		s := v.String()
		if v.IsMissing() || strings.TrimSpace(s) == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Filter returns the records whose value of field renders as value
func Filter(t *Table, field, value string) (*Table, error) {
	cells, err := t.Column(field)
	if err != nil {
		return nil, err
	}

	var rows []int
	for i, v := range cells {
		if !v.IsMissing() && v.String() == value {
			rows = append(rows, i)
		}
	}
	return t.Select(rows), nil
}
