package survey

import (
	"sort"
	"strings"
)

// FrequencyEntry is one distinct value of a field and its count
type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FieldFrequency is the frequency table of one field. Entries are ordered by
// descending count; ties keep the order in which values were first seen.
type FieldFrequency struct {
	Field   string           `json:"field"`
	Entries []FrequencyEntry `json:"entries"`
	Total   int              `json:"total"`
}

// Counts returns the table as a value to count map
func (f FieldFrequency) Counts() map[string]int {
	out := make(map[string]int, len(f.Entries))
	for _, e := range f.Entries {
		out[e.Value] = e.Count
	}
	return out
}

// Percent returns the share of an entry in the total, 0 when empty
func (f FieldFrequency) Percent(e FrequencyEntry) float64 {
	if f.Total == 0 {
		return 0
	}
	return float64(e.Count) / float64(f.Total) * 100
}

// Frequency counts the distinct values of a field. Missing cells and values
// that are blank once trimmed are left out.
func Frequency(t *Table, field string) (FieldFrequency, error) {
	cells, err := t.Column(field)
	if err != nil {
		return FieldFrequency{}, err
	}
	name, _ := t.ColumnName(field)

	pos := make(map[string]int)
	var entries []FrequencyEntry
	total := 0
	for _, v := range cells {
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if strings.TrimSpace(s) == "" {
			continue
		}
		if i, ok := pos[s]; ok {
			entries[i].Count++
		} else {
			pos[s] = len(entries)
			entries = append(entries, FrequencyEntry{Value: s, Count: 1})
		}
		total++
	}

	if len(entries) == 0 {
		return FieldFrequency{}, noValidData(name)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return FieldFrequency{Field: name, Entries: entries, Total: total}, nil
}
