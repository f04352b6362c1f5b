package survey

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// AgeSummary holds the descriptive statistics of the valid ages
type AgeSummary struct {
	Field  string  `json:"field"`
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// DescribeAges summarizes the valid ages of a column. The standard
// deviation is the population one.
func DescribeAges(t *Table, ageField string) (AgeSummary, error) {
	cells, err := t.Column(ageField)
	if err != nil {
		return AgeSummary{}, err
	}
	name, _ := t.ColumnName(ageField)

	var data stats.Float64Data
	for _, v := range cells {
		if age, ok := validAge(v); ok {
			data = append(data, float64(age))
		}
	}
	if len(data) == 0 {
		return AgeSummary{}, noValidData(name)
	}

	s := AgeSummary{Field: name, Count: len(data)}

	lo, err := stats.Min(data)
	if err != nil {
		return AgeSummary{}, fmt.Errorf("min of %q: %w", name, err)
	}
	hi, err := stats.Max(data)
	if err != nil {
		return AgeSummary{}, fmt.Errorf("max of %q: %w", name, err)
	}
	s.Min, s.Max = int(lo), int(hi)

	if s.Mean, err = stats.Mean(data); err != nil {
		return AgeSummary{}, fmt.Errorf("mean of %q: %w", name, err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return AgeSummary{}, fmt.Errorf("median of %q: %w", name, err)
	}
	if s.StdDev, err = stats.StandardDeviationPopulation(data); err != nil {
		return AgeSummary{}, fmt.Errorf("standard deviation of %q: %w", name, err)
	}
	s.Q25, s.Q75 = quartiles(data)
	return s, nil
}

// quartiles returns the first and third quartile. stats.Quartile needs at
// least two values; a single age is its own quartiles.
func quartiles(data stats.Float64Data) (float64, float64) {
	if len(data) < 2 {
		return data[0], data[0]
	}
	q, err := stats.Quartile(data)
	if err != nil {
		return data[0], data[0]
	}
	return q.Q1, q.Q3
}
