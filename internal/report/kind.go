package report

import "mentedigital/internal/survey"

// ChartKind selects how a section is drawn
type ChartKind string

const (
	ChartPie       ChartKind = "pie"
	ChartBar       ChartKind = "bar"
	ChartHistogram ChartKind = "histogram"
	ChartPyramid   ChartKind = "pyramid"
)

var (
	pieFields    = []string{"gênero", "genero", "raça", "raca", "estado civil"}
	genderFields = []string{"gênero", "genero"}
)

// KindFor returns the chart kind of a profile field: pie for gender, race
// and marital status, bars for everything else.
func KindFor(field string) ChartKind {
	if survey.Matches(field, pieFields...) {
		return ChartPie
	}
	return ChartBar
}

// IsGenderField reports whether the age charts follow this field
func IsGenderField(field string) bool {
	return survey.Matches(field, genderFields...)
}
