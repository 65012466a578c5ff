package synthesis

import (
	"strings"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// DefinitionKind says how a definition derives its values.
type DefinitionKind int

const (
	KindIdentity DefinitionKind = iota
	KindTransform
	KindAggregation
)

// String returns the string representation of the definition kind
func (k DefinitionKind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindTransform:
		return "transform"
	case KindAggregation:
		return "aggregation"
	default:
		return "unknown"
	}
}

// Definition describes one feature column: the primitive applied, the
// feature it is applied to, and the entity the values belong to.
type Definition struct {
	Name      string
	Entity    string
	Kind      DefinitionKind
	Primitive string
	Base      *Definition
	Source    string
	// Depth counts the transforms in the chain.
	Depth int
	Type  table.LogicalType

	key  string
	slot int
}

// Chain lists the primitive names from the outermost inwards.
func (d Definition) Chain() []string {
	var chain []string
	for cur := &d; cur != nil && cur.Kind != KindIdentity; cur = cur.Base {
		chain = append(chain, cur.Primitive)
	}
	return chain
}

// Key is the canonical identity used for deduplication.
func (d Definition) Key() string {
	return d.key
}

func identity(entity string, col table.Column) *Definition {
	return &Definition{
		Name:   col.Name,
		Entity: entity,
		Kind:   KindIdentity,
		Source: col.Name,
		Type:   col.Type,
		key:    entity + "." + col.Name,
	}
}

func transformed(prim string, out table.LogicalType, base *Definition) *Definition {
	return &Definition{
		Name:      strings.ToUpper(prim) + "(" + base.Name + ")",
		Entity:    base.Entity,
		Kind:      KindTransform,
		Primitive: prim,
		Base:      base,
		Source:    base.Source,
		Depth:     base.Depth + 1,
		Type:      out,
		key:       prim + "(" + base.key + ")",
	}
}

// aggregated reduces a child feature to the parent. Aggregating the child
// index is named after the relation alone, as in COUNT(loans).
func aggregated(prim string, out table.LogicalType, parent, relation string, base *Definition) *Definition {
	inner := relation + "." + base.Name
	if base.Kind == KindIdentity && base.Type == table.TypeIndex {
		inner = relation
	}
	return &Definition{
		Name:      strings.ToUpper(prim) + "(" + inner + ")",
		Entity:    parent,
		Kind:      KindAggregation,
		Primitive: prim,
		Base:      base,
		Source:    base.Source,
		Depth:     base.Depth,
		Type:      out,
		key:       prim + "(" + base.key + ")",
	}
}
