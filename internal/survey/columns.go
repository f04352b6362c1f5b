package survey

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// HeaderRule renames the first column whose folded header contains any of
// Substrings to Canonical.
type HeaderRule struct {
	Substrings []string
	Canonical  string
}

// DefaultHeaderRules detects the submission time column
var DefaultHeaderRules = []HeaderRule{
	{Substrings: []string{"hora", "timestamp"}, Canonical: TimestampColumn},
}

var (
	parenGroupRe = regexp.MustCompile(`\(.*?\)`)
	anosRe       = regexp.MustCompile(`(?i)anos`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// FoldHeader trims, NFC-normalizes and lowercases a raw header. A leading
// UTF-8 byte order mark is dropped.
func FoldHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(h)))
}

// ApplyHeaderRules evaluates the rules in order against folded headers. Each
// rule renames at most one column, the first match in column order, and a
// column renamed by an earlier rule is not considered again.
func ApplyHeaderRules(headers []string, rules []HeaderRule) []string {
	out := append([]string(nil), headers...)
	renamed := make([]bool, len(out))

	for _, rule := range rules {
		for i, h := range out {
			if renamed[i] || !containsAny(h, rule.Substrings) {
				continue
			}
			out[i] = rule.Canonical
			renamed[i] = true
			break
		}
	}
	return out
}

// CleanDisplayName strips parenthesized groups and the "anos" token from a
// header and collapses whitespace, so "idade (anos)" becomes "idade".
func CleanDisplayName(name string) string {
	name = parenGroupRe.ReplaceAllString(name, "")
	name = anosRe.ReplaceAllString(name, "")
	name = spaceRunRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// PrepareHeaders turns the raw header row of a source into column names:
// fold, apply the rules, clean display names, then name blank headers
// "unnamed: N" and suffix duplicates with ".1", ".2" in column order.
func PrepareHeaders(raw []string, rules []HeaderRule) []string {
	folded := make([]string, len(raw))
	for i, h := range raw {
		folded[i] = FoldHeader(h)
	}

	names := ApplyHeaderRules(folded, rules)
	canonical := make(map[string]bool, len(rules))
	for _, r := range rules {
		canonical[r.Canonical] = true
	}

	seen := make(map[string]int, len(names))
	for i, n := range names {
		if !canonical[n] {
			n = CleanDisplayName(n)
		}
		if n == "" {
			n = fmt.Sprintf("unnamed: %d", i)
		}
		if k, dup := seen[n]; dup {
			seen[n] = k + 1
			n = fmt.Sprintf("%s.%d", n, k+1)
		} else {
			seen[n] = 0
		}
		names[i] = n
	}
	return names
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
