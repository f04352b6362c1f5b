package survey

import "strings"

// DefaultExcludedPrefix marks raw questionnaire items ("p1", "p2 ...")
const DefaultExcludedPrefix = "p"

// DefaultProfileFields are the respondent profile fields shown in reports
// and on the statistics page, accented and unaccented.
var DefaultProfileFields = []string{
	"gênero", "genero",
	"raça", "raca",
	"grau de escolaridade",
	"estado civil",
	"situação atual de trabalho", "situacao atual de trabalho",
	"área de atuação", "area de atuação", "area de atuacao",
}

// FieldSelector picks the reportable fields of a table
type FieldSelector struct {
	// ExcludedPrefix drops columns whose folded name starts with it
	ExcludedPrefix string
	// Profile keeps columns whose folded name contains one of these
	Profile []string
}

// DefaultFieldSelector returns the selector used by the dashboard
func DefaultFieldSelector() FieldSelector {
	return FieldSelector{
		ExcludedPrefix: DefaultExcludedPrefix,
		Profile:        DefaultProfileFields,
	}
}

// Reportable reports whether a column is a profile field
func (s FieldSelector) Reportable(column string) bool {
	name := foldName(column)
	if s.ExcludedPrefix != "" && strings.HasPrefix(name, foldName(s.ExcludedPrefix)) {
		return false
	}
	return Matches(name, s.Profile...)
}

// Select returns the reportable columns in table order
func (s FieldSelector) Select(columns []string) []string {
	var out []string
	for _, c := range columns {
		if s.Reportable(c) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether a column name contains any of the given
// fragments, after folding both sides.
func Matches(column string, fragments ...string) bool {
	name := foldName(column)
	for _, f := range fragments {
		if f != "" && strings.Contains(name, foldName(f)) {
			return true
		}
	}
	return false
}
