package synthesis

import (
	"fmt"
	"sort"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// DefaultMaxDepth is the composition depth used when a caller does not
// choose one.
const DefaultMaxDepth = 2

// PrimitiveOptions restricts where a single primitive is applied.
type PrimitiveOptions struct {
	// IncludeColumns limits the primitive to features derived from these
	// source columns.
	IncludeColumns []string
}

// Request selects the primitives and depth for one synthesis run.
type Request struct {
	Transforms       []string
	Aggregations     []string
	MaxDepth         int
	IgnoreColumns    []string
	PrimitiveOptions map[string]PrimitiveOptions
}

// NewRequest returns a request with DefaultMaxDepth.
func NewRequest(transforms, aggregations []string) Request {
	return Request{
		Transforms:   transforms,
		Aggregations: aggregations,
		MaxDepth:     DefaultMaxDepth,
	}
}

// Plan is the resolved, ordered set of definitions for one request.
type Plan struct {
	// Features are the customer grain output columns in output order.
	Features []*Definition
	// layers[d] holds the loan grain definitions of depth d.
	layers     [][]*Definition
	numDerived int
	transforms map[string]primitives.Transform
	aggregates map[string]primitives.Aggregation
}

// Definitions returns copies of the output definitions.
func (p *Plan) Definitions() []Definition {
	out := make([]Definition, len(p.Features))
	for i, d := range p.Features {
		out[i] = *d
	}
	return out
}

type planner struct {
	es      *entityset.EntitySet
	catalog *primitives.Catalog
	req     Request

	aggs  []primitives.Aggregation
	trans []primitives.Transform

	ignore  map[string]bool
	include map[string]map[string]bool
	// produced records which (primitive, source column) pairs yielded at
	// least one definition.
	produced map[string]map[string]bool
	seen     map[string]bool
	plan     *Plan
}

// NewPlan resolves the request against the catalog and enumerates the feature
// definitions without computing any values. Unknown primitive names fail
// with primitives.UnknownPrimitiveError, unknown option columns with
// UnknownColumnError, and an included column that a primitive cannot use
// with primitives.TypeMismatchError.
func NewPlan(catalog *primitives.Catalog, es *entityset.EntitySet, req Request) (*Plan, error) {
	if req.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, req.MaxDepth)
	}

	p := &planner{
		es:       es,
		catalog:  catalog,
		req:      req,
		ignore:   make(map[string]bool),
		include:  make(map[string]map[string]bool),
		produced: make(map[string]map[string]bool),
		seen:     make(map[string]bool),
		plan: &Plan{
			transforms: make(map[string]primitives.Transform),
			aggregates: make(map[string]primitives.Aggregation),
		},
	}

	if err := p.resolve(); err != nil {
		return nil, err
	}
	if err := p.options(); err != nil {
		return nil, err
	}

	p.enumerate()

	if err := p.checkIncludes(); err != nil {
		return nil, err
	}

	for i, d := range p.plan.Features {
		d.slot = i
	}
	for _, layer := range p.plan.layers[1:] {
		for _, d := range layer {
			d.slot = p.plan.numDerived
			p.plan.numDerived++
		}
	}
	return p.plan, nil
}

func (p *planner) resolve() error {
	for _, name := range p.req.Aggregations {
		agg, err := p.catalog.ResolveAggregation(name)
		if err != nil {
			return err
		}
		if _, dup := p.plan.aggregates[agg.Name()]; dup {
			continue
		}
		p.plan.aggregates[agg.Name()] = agg
		p.aggs = append(p.aggs, agg)
	}
	for _, name := range p.req.Transforms {
		tr, err := p.catalog.ResolveTransform(name)
		if err != nil {
			return err
		}
		if _, dup := p.plan.transforms[tr.Name()]; dup {
			continue
		}
		p.plan.transforms[tr.Name()] = tr
		p.trans = append(p.trans, tr)
	}
	return nil
}

func columnSet(tables ...*table.Table) map[string]bool {
	known := make(map[string]bool)
	for _, t := range tables {
		for _, name := range t.Names() {
			known[name] = true
		}
	}
	return known
}

func (p *planner) options() error {
	known := columnSet(p.es.Customers(), p.es.Loans())
	for _, col := range p.req.IgnoreColumns {
		if !known[col] {
			return &UnknownColumnError{Column: col, Known: sortedKeys(known)}
		}
		p.ignore[col] = true
	}

	// primitives only ever see loan columns
	loanCols := columnSet(p.es.Loans())
	for _, name := range sortedKeys(p.req.PrimitiveOptions) {
		opts := p.req.PrimitiveOptions[name]
		prim, err := p.catalog.Resolve(name)
		if err != nil {
			return err
		}
		if len(opts.IncludeColumns) == 0 {
			continue
		}
		cols := make(map[string]bool, len(opts.IncludeColumns))
		for _, col := range opts.IncludeColumns {
			if !loanCols[col] {
				return &UnknownColumnError{Column: col, Known: sortedKeys(loanCols)}
			}
			cols[col] = true
		}
		p.include[prim.Name()] = cols
	}
	return nil
}

// allowed reports whether options permit prim on features of source.
func (p *planner) allowed(prim, source string) bool {
	cols, restricted := p.include[prim]
	return !restricted || cols[source]
}

func (p *planner) record(d *Definition) bool {
	if p.seen[d.key] {
		return false
	}
	p.seen[d.key] = true
	if p.produced[d.Primitive] == nil {
		p.produced[d.Primitive] = make(map[string]bool)
	}
	p.produced[d.Primitive][d.Source] = true
	return true
}

func (p *planner) enumerate() {
	rel := p.es.Relationship()

	for _, col := range p.es.CustomerColumns() {
		if p.ignore[col.Name] {
			continue
		}
		p.plan.Features = append(p.plan.Features, identity(rel.Parent, col))
	}

	base := make([]*Definition, 0)
	for _, col := range p.es.LoanColumns() {
		if p.ignore[col.Name] {
			continue
		}
		base = append(base, identity(rel.Child, col))
	}
	p.plan.layers = append(p.plan.layers, base)

	if p.req.MaxDepth < 1 {
		return
	}

	index := identity(rel.Child, p.es.LoanIndex())
	for _, agg := range p.aggs {
		if primitives.Accepts(agg, table.TypeIndex) && p.allowed(agg.Name(), index.Source) {
			p.aggregate(agg, index)
		}
		for _, d := range base {
			p.aggregate(agg, d)
		}
	}

	prev := base
	for depth := 1; depth < p.req.MaxDepth; depth++ {
		var layer []*Definition
		for _, tr := range p.trans {
			for _, d := range prev {
				if d.Primitive == tr.Name() || !primitives.Accepts(tr, d.Type) || !p.allowed(tr.Name(), d.Source) {
					continue
				}
				nd := transformed(tr.Name(), tr.OutputType(d.Type), d)
				if p.record(nd) {
					layer = append(layer, nd)
				}
			}
		}
		if len(layer) == 0 {
			break
		}
		p.plan.layers = append(p.plan.layers, layer)

		for _, agg := range p.aggs {
			for _, d := range layer {
				p.aggregate(agg, d)
			}
		}
		prev = layer
	}

}

func (p *planner) aggregate(agg primitives.Aggregation, d *Definition) {
	if !primitives.Accepts(agg, d.Type) || !p.allowed(agg.Name(), d.Source) {
		return
	}
	rel := p.es.Relationship()
	nd := aggregated(agg.Name(), agg.OutputType(d.Type), rel.Parent, rel.Child, d)
	if p.record(nd) {
		p.plan.Features = append(p.plan.Features, nd)
	}
}

// checkIncludes rejects an included column that a reachable primitive could
// not be applied to.
func (p *planner) checkIncludes() error {
	for _, agg := range p.aggs {
		if p.req.MaxDepth >= 1 {
			if err := p.checkInclude(agg); err != nil {
				return err
			}
		}
	}
	for _, tr := range p.trans {
		if p.req.MaxDepth >= 2 {
			if err := p.checkInclude(tr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *planner) checkInclude(prim primitives.Primitive) error {
	cols, ok := p.include[prim.Name()]
	if !ok {
		return nil
	}
	for _, name := range sortedKeys(cols) {
		if p.produced[prim.Name()][name] {
			continue
		}
		col, _ := p.es.Loans().Column(name)
		return &primitives.TypeMismatchError{
			Primitive: prim.Name(),
			Column:    name,
			Got:       col.Type,
			Want:      prim.InputTypes(),
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
