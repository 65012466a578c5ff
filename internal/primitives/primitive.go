package primitives

import (
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// Kind distinguishes aggregation primitives from transform primitives.
type Kind int

const (
	KindAggregation Kind = iota + 1
	KindTransform
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindAggregation:
		return "aggregation"
	case KindTransform:
		return "transform"
	default:
		return "primitive"
	}
}

// Primitive is a named, pure feature function with a type contract.
type Primitive interface {
	// Name is the lower-case canonical name.
	Name() string
	Kind() Kind
	InputTypes() []table.LogicalType
	// OutputType is the logical type produced from an input of type in.
	OutputType(in table.LogicalType) table.LogicalType
	Description() string
}

// Aggregation reduces the values of one group to a scalar.
type Aggregation interface {
	Primitive
	Aggregate(values []table.Value) (table.Value, error)
}

// Transform maps a child column to a new child column of the same length.
type Transform interface {
	Primitive
	Transform(values []table.Value, frame Frame) ([]table.Value, error)
}

// Frame carries the grouping that row-relative transforms need.
type Frame struct {
	// Groups lists the rows of each parent, in ingestion order.
	Groups [][]int
	// Order holds a per-row tie-break key, normally the child index.
	Order []table.Value
}

// Accepts reports whether p may be applied to a column of type t.
func Accepts(p Primitive, t table.LogicalType) bool {
	for _, in := range p.InputTypes() {
		if in == t {
			return true
		}
	}
	return false
}

// info is embedded by every built-in primitive.
type info struct {
	name        string
	kind        Kind
	inputs      []table.LogicalType
	output      table.LogicalType // TypeUnknown means "same as input"
	description string
}

func (i info) Name() string                    { return i.name }
func (i info) Kind() Kind                      { return i.kind }
func (i info) InputTypes() []table.LogicalType { return i.inputs }
func (i info) Description() string             { return i.description }

func (i info) OutputType(in table.LogicalType) table.LogicalType {
	if i.output == table.TypeUnknown {
		return in
	}
	return i.output
}
