package survey

import (
	"math"
	"strconv"
	"strings"
)

// DefaultAgeField is the column coerced to integers when cleaning a table
const DefaultAgeField = "idade"

// int range as float64 bounds; the upper bound rounds up to a power of two
const (
	maxIntFloat = float64(math.MaxInt)
	minIntFloat = float64(math.MinInt)
)

// CoerceInt converts a cell to an integer. The text is parsed as a
// floating-point number and truncated towards zero. Empty text, parse
// failures, NaN, infinities and out-of-range values yield Missing.
// Integer cells pass through.
func CoerceInt(v Value) Value {
	switch v.Kind() {
	case KindInt:
		return v
	case KindMissing:
		return Missing()
	}

	s, _ := v.AsText()
	s = strings.TrimSpace(s)
	if s == "" || isHexLiteral(s) {
		return Missing()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}

	f = math.Trunc(f)
	if f >= maxIntFloat || f < minIntFloat {
		return Missing()
	}
	return Int(int(f))
}

// ParseAge is CoerceInt for callers holding a plain string
func ParseAge(s string) (int, bool) {
	return CoerceInt(Text(s)).AsInt()
}

// strconv accepts hexadecimal floats ("0x1p4"); survey answers never mean that
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
