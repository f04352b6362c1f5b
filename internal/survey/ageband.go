package survey

import (
	"fmt"
	"sort"
	"strings"
)

// BandWidth is the width of an age band in years
const BandWidth = 10

// MaxAge is the largest age accepted by the banding functions. Larger
// answers are typos and would otherwise stretch the band range.
const MaxAge = 150

// AgeBand is the half-open interval [Start, End)
type AgeBand struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Label renders the band the way charts show it, e.g. "20-29"
func (b AgeBand) Label() string {
	return fmt.Sprintf("%d-%d", b.Start, b.End-1)
}

// Contains reports whether age falls inside the band
func (b AgeBand) Contains(age int) bool {
	return b.Start <= age && age < b.End
}

// CrossTab counts records per age band and category value.
// Counts[i][j] is the count for Bands[i] and Categories[j].
type CrossTab struct {
	AgeField      string    `json:"age_field"`
	CategoryField string    `json:"category_field"`
	Bands         []AgeBand `json:"bands"`
	Categories    []string  `json:"categories"`
	Counts        [][]int   `json:"counts"`
}

// Count returns the count of one band and category, 0 when either is unknown
func (c CrossTab) Count(band AgeBand, category string) int {
	bi, ci := c.bandIndex(band), c.categoryIndex(category)
	if bi < 0 || ci < 0 {
		return 0
	}
	return c.Counts[bi][ci]
}

// BandTotal returns the number of records in the i-th band
func (c CrossTab) BandTotal(i int) int {
	sum := 0
	for _, n := range c.Counts[i] {
		sum += n
	}
	return sum
}

// Total returns the number of records in the cross tabulation
func (c CrossTab) Total() int {
	sum := 0
	for i := range c.Bands {
		sum += c.BandTotal(i)
	}
	return sum
}

func (c CrossTab) bandIndex(b AgeBand) int {
	for i, x := range c.Bands {
		if x == b {
			return i
		}
	}
	return -1
}

func (c CrossTab) categoryIndex(cat string) int {
	for i, x := range c.Categories {
		if x == cat {
			return i
		}
	}
	return -1
}

// BandsFor returns the width-10 bands covering [lo, hi]: from the largest
// multiple of 10 not above lo up to the smallest multiple of 10 above hi.
func BandsFor(lo, hi int) []AgeBand {
	lo = floorTo(lo, BandWidth)
	hi = floorTo(hi, BandWidth) + BandWidth
	if hi <= lo {
		hi = lo + BandWidth
	}

	bands := make([]AgeBand, 0, (hi-lo)/BandWidth)
	for s := lo; s < hi; s += BandWidth {
		bands = append(bands, AgeBand{Start: s, End: s + BandWidth})
	}
	return bands
}

// BandOf returns the index of the band holding age, or -1
func BandOf(bands []AgeBand, age int) int {
	if len(bands) == 0 || age < bands[0].Start {
		return -1
	}
	i := (age - bands[0].Start) / BandWidth
	if i >= len(bands) || !bands[i].Contains(age) {
		return -1
	}
	return i
}

type agePair struct {
	age      int
	category string
}

// AgeBands cross-tabulates age bands against the values of categoryField.
// Only records with a non-negative integer age and a non-blank category
// take part. Categories are sorted by value; bands inside the observed
// range with no records keep zero counts.
func AgeBands(t *Table, ageField, categoryField string) (CrossTab, error) {
	ages, err := t.Column(ageField)
	if err != nil {
		return CrossTab{}, err
	}
	cats, err := t.Column(categoryField)
	if err != nil {
		return CrossTab{}, err
	}
	ageName, _ := t.ColumnName(ageField)
	catName, _ := t.ColumnName(categoryField)

	var pairs []agePair
	for i := range ages {
		age, ok := validAge(ages[i])
		if !ok || cats[i].IsMissing() {
			continue
		}
		cat := cats[i].String()
		if strings.TrimSpace(cat) == "" {
			continue
		}
		pairs = append(pairs, agePair{age: age, category: cat})
	}
	if len(pairs) == 0 {
		return CrossTab{}, fmt.Errorf("%w for fields %q and %q", ErrNoValidData, ageName, catName)
	}

	lo, hi := pairs[0].age, pairs[0].age
	seen := make(map[string]bool)
	var categories []string
	for _, p := range pairs {
		lo, hi = min(lo, p.age), max(hi, p.age)
		if !seen[p.category] {
			seen[p.category] = true
			categories = append(categories, p.category)
		}
	}
	sort.Strings(categories)

	ct := CrossTab{
		AgeField:      ageName,
		CategoryField: catName,
		Bands:         BandsFor(lo, hi),
		Categories:    categories,
	}
	ct.Counts = make([][]int, len(ct.Bands))
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(categories))
	}
	for _, p := range pairs {
		bi := BandOf(ct.Bands, p.age)
		if bi < 0 {
			continue
		}
		ct.Counts[bi][ct.categoryIndex(p.category)]++
	}
	return ct, nil
}

// BandCount is one bar of an age histogram
type BandCount struct {
	Band  AgeBand `json:"band"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// AgeHistogram buckets every valid age of the table into width-10 bands
func AgeHistogram(t *Table, ageField string) ([]BandCount, error) {
	cells, err := t.Column(ageField)
	if err != nil {
		return nil, err
	}
	name, _ := t.ColumnName(ageField)

	var ages []int
	for _, v := range cells {
		if age, ok := validAge(v); ok {
			ages = append(ages, age)
		}
	}
	if len(ages) == 0 {
		return nil, noValidData(name)
	}

	lo, hi := ages[0], ages[0]
	for _, a := range ages {
		lo, hi = min(lo, a), max(hi, a)
	}
	bands := BandsFor(lo, hi)
	out := make([]BandCount, len(bands))
	for i, b := range bands {
		out[i] = BandCount{Band: b, Label: b.Label()}
	}
	for _, a := range ages {
		if i := BandOf(bands, a); i >= 0 {
			out[i].Count++
		}
	}
	return out, nil
}

func validAge(v Value) (int, bool) {
	age, ok := v.AsInt()
	if !ok || age < 0 || age > MaxAge {
		return 0, false
	}
	return age, true
}

// floorTo rounds n down to a multiple of step, also for negative n
func floorTo(n, step int) int {
	q := n / step
	if n%step != 0 && n < 0 {
		q--
	}
	return q * step
}
