package survey

import "fmt"

// PyramidRow holds the two mirrored bars of one age band. Left is negative
// so both sides can be plotted on a single axis.
type PyramidRow struct {
	Band       AgeBand `json:"band"`
	Label      string  `json:"label"`
	Left       float64 `json:"left"`
	Right      float64 `json:"right"`
	LeftCount  int     `json:"left_count"`
	RightCount int     `json:"right_count"`
}

// Pyramid is an age pyramid of a binary category
type Pyramid struct {
	CategoryField string       `json:"category_field"`
	Left          string       `json:"left"`
	Right         string       `json:"right"`
	Rows          []PyramidRow `json:"rows"`
}

// MaxPercent returns the largest absolute percentage, useful for scaling axes
func (p Pyramid) MaxPercent() float64 {
	m := 0.0
	for _, r := range p.Rows {
		m = max(m, -r.Left, r.Right)
	}
	return m
}

// BuildPyramid turns a two-category cross tabulation into per-band
// percentages of the band total. The first category goes on the left.
func BuildPyramid(ct CrossTab) (Pyramid, error) {
	switch n := len(ct.Categories); {
	case n < 2:
		return Pyramid{}, fmt.Errorf("%w: %q has %d categories, need 2", ErrInsufficientData, ct.CategoryField, n)
	case n > 2:
		return Pyramid{}, fmt.Errorf("%w: %q has %d categories", ErrNotBinary, ct.CategoryField, n)
	}

	p := Pyramid{
		CategoryField: ct.CategoryField,
		Left:          ct.Categories[0],
		Right:         ct.Categories[1],
		Rows:          make([]PyramidRow, len(ct.Bands)),
	}
	for i, b := range ct.Bands {
		l, r := ct.Counts[i][0], ct.Counts[i][1]
		row := PyramidRow{Band: b, Label: b.Label(), LeftCount: l, RightCount: r}
		if total := l + r; total > 0 {
			row.Left = -float64(l) / float64(total) * 100
			row.Right = float64(r) / float64(total) * 100
		}
		p.Rows[i] = row
	}
	return p, nil
}
