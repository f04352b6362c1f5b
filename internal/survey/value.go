package survey

import "strconv"

// Kind identifies what a cell holds
type Kind uint8

const (
	// KindMissing marks an absent cell or a failed coercion
	KindMissing Kind = iota
	// KindText marks a free-text cell
	KindText
	// KindInt marks a coerced integer cell
	KindInt
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	default:
		return "missing"
	}
}

// Value is a single table cell. The zero Value is Missing.
type Value struct {
	kind Kind
	text string
	num  int
}

// Missing returns the missing marker
func Missing() Value {
	return Value{}
}

// Text returns a text cell. The empty string is a valid text value and is
// treated as blank by the aggregators.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Int returns an integer cell
func Int(n int) Value {
	return Value{kind: KindInt, num: n}
}

// Kind returns the cell kind
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the cell holds no value
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// AsText returns the text of a text cell
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == KindText
}

// AsInt returns the integer of an int cell
func (v Value) AsInt() (int, bool) {
	return v.num, v.kind == KindInt
}

// String renders the cell the way it is compared, counted and displayed.
// Missing renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt:
		return strconv.Itoa(v.num)
	default:
		return ""
	}
}
