package table

import (
	"math"
	"strconv"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used when rendering dates.
const DateLayout = "2006-01-02"

// Kind identifies which field of a Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
	KindTime
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single nullable cell.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

// Key is a comparable identity for a Value, used for counting and grouping.
type Key struct {
	kind Kind
	num  float64
	str  string
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Number returns a numeric cell. NaN and infinities become null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, num: f}
}

// Int returns a numeric cell holding an integer.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a text cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Time returns a datetime cell normalised to UTC. The zero time becomes null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return Value{kind: KindTime, t: t.UTC()}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric content of the cell.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the boolean content of the cell.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Text returns the string content of the cell.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Timestamp returns the datetime content of the cell.
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Key returns the comparable identity of the cell.
func (v Value) Key() Key {
	switch v.kind {
	case KindNumber:
		return Key{kind: KindNumber, num: v.num}
	case KindBool:
		if v.b {
			return Key{kind: KindBool, num: 1}
		}
		return Key{kind: KindBool}
	case KindString:
		return Key{kind: KindString, str: v.str}
	case KindTime:
		return Key{kind: KindTime, num: float64(v.t.UnixNano())}
	default:
		return Key{}
	}
}

// Equal reports whether two cells hold the same value. Two nulls are equal.
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}

// String renders the cell for logs and exports. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	case KindTime:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Interface converts the cell to a plain Go value: nil, float64, bool,
// string, or time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	case KindTime:
		return v.t
	default:
		return nil
	}
}
