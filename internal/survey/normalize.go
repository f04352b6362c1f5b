package survey

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// removedTokens are deleted from free-text answers, in this order. "anos"
// goes before "ano" so "25 anos" does not leave a stray "s".
var removedTokens = []string{"anos", "ano", "( )", "()"}

// extraNormalizePasses bounds the fixed-point loop in NormalizeText on top
// of the input length. Every pass that changes its input either shortens it
// or appends one closing parenthesis that the next pass strips again.
const extraNormalizePasses = 8

// Normalize cleans a text cell. Missing and integer cells pass through.
func Normalize(v Value) Value {
	s, ok := v.AsText()
	if !ok {
		return v
	}
	return Text(NormalizeText(s))
}

// NormalizeText folds a free-text answer into its comparable category form.
// The cleaning pass is repeated until it no longer changes the text, so
// NormalizeText(NormalizeText(s)) == NormalizeText(s) for every s.
func NormalizeText(s string) string {
	limit := len(s) + extraNormalizePasses
	for i := 0; i < limit; i++ {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func normalizePass(s string) string {
	s = norm.NFC.String(strings.ToLower(s))
	s = strings.TrimSpace(s)
	for _, tok := range removedTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()")
	s = strings.TrimSpace(s)

	// repair a truncated trailing parenthesis
	if strings.Count(s, "(") > strings.Count(s, ")") {
		s += ")"
	}

	return strings.Join(strings.Fields(s), " ")
}
