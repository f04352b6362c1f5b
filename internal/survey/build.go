package survey

import "strings"

// BuildTable turns raw source rows into a table. The first row is the
// header. Blank lines are skipped, empty cells become Missing and every
// other cell is kept as text exactly as received.
func BuildTable(rows [][]string, rules []HeaderRule) *Table {
	if len(rows) == 0 {
		return EmptyTable()
	}

	columns := PrepareHeaders(rows[0], rules)
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(Record, len(columns))
		for i := 0; i < len(columns) && i < len(row); i++ {
			if row[i] != "" {
				rec[i] = Text(row[i])
			}
		}
		records = append(records, rec)
	}
	return NewTable(columns, records)
}

// Clean normalizes every text cell and coerces the age column to integers.
// Age answers are normalized before coercion so "25 anos" reads as 25. The
// timestamp column is left untouched. An absent age column is not an
// error.
func (t *Table) Clean(ageField string) *Table {
	ageCol := ""
	if name, ok := t.ColumnName(ageField); ok {
		ageCol = name
	}

	return t.Map(func(column string, v Value) Value {
		switch column {
		case TimestampColumn:
			return v
		case ageCol:
			return CoerceInt(Normalize(v))
		default:
			return Normalize(v)
		}
	})
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
