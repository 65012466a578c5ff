package primitives

import (
	"fmt"
	"strings"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// UnknownPrimitiveError is returned when a name does not resolve to a
// primitive of the requested kind.
type UnknownPrimitiveError struct {
	Name      string   `json:"name"`
	Kind      Kind     `json:"-"`
	Available []string `json:"available,omitempty"`
}

// Error implements the error interface
func (e *UnknownPrimitiveError) Error() string {
	msg := fmt.Sprintf("unknown primitive %q", e.Name)
	if e.Kind != 0 {
		msg = fmt.Sprintf("unknown %s primitive %q", e.Kind, e.Name)
	}
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// TypeMismatchError is returned when a primitive is applied to a column
// whose logical type it does not accept.
type TypeMismatchError struct {
	Primitive string              `json:"primitive"`
	Column    string              `json:"column,omitempty"`
	Got       table.LogicalType   `json:"-"`
	Want      []table.LogicalType `json:"-"`
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	want := make([]string, len(e.Want))
	for i, t := range e.Want {
		want[i] = t.String()
	}
	target := "value"
	if e.Column != "" {
		target = fmt.Sprintf("column %q", e.Column)
	}
	return fmt.Sprintf("primitive %s cannot be applied to %s of type %s (accepts %s)",
		e.Primitive, target, e.Got, strings.Join(want, ", "))
}

// mismatch builds a TypeMismatchError for a cell of an unexpected kind.
func mismatch(p Primitive, v table.Value) *TypeMismatchError {
	return &TypeMismatchError{
		Primitive: p.Name(),
		Got:       kindType(v.Kind()),
		Want:      p.InputTypes(),
	}
}

func kindType(k table.Kind) table.LogicalType {
	switch k {
	case table.KindNumber:
		return table.TypeNumeric
	case table.KindBool:
		return table.TypeBoolean
	case table.KindString:
		return table.TypeCategorical
	case table.KindTime:
		return table.TypeDatetime
	default:
		return table.TypeUnknown
	}
}
