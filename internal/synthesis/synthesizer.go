package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// cancelCheckEvery bounds how many customers are aggregated between
// context checks.
const cancelCheckEvery = 1024

// Synthesizer plans and computes feature tables. It holds no per-request
// state and may be shared between goroutines.
type Synthesizer struct {
	catalog     *primitives.Catalog
	parallelism int
	logger      *slog.Logger
}

// NewSynthesizer creates a synthesizer. A parallelism below 1 uses
// GOMAXPROCS.
func NewSynthesizer(catalog *primitives.Catalog, parallelism int, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Synthesizer{
		catalog:     catalog,
		parallelism: parallelism,
		logger:      logger.With(slog.String("component", "synthesizer")),
	}
}

// Catalog returns the primitive catalog used for resolution
func (s *Synthesizer) Catalog() *primitives.Catalog {
	return s.catalog
}

// Plan enumerates the definitions for req without computing values.
func (s *Synthesizer) Plan(es *entityset.EntitySet, req Request) (*Plan, error) {
	return NewPlan(s.catalog, es, req)
}

// Synthesize plans and executes req over es. The returned table starts with
// the customer_ID column followed by one column per definition, in
// definition order, with one row per customer of es.
func (s *Synthesizer) Synthesize(ctx context.Context, es *entityset.EntitySet, req Request) (*table.Table, []Definition, error) {
	plan, err := s.Plan(es, req)
	if err != nil {
		return nil, nil, err
	}

	ft, err := s.Execute(ctx, es, plan)
	if err != nil {
		return nil, nil, err
	}
	return ft, plan.Definitions(), nil
}

// Execute computes a plan produced for the same entity set.
func (s *Synthesizer) Execute(ctx context.Context, es *entityset.EntitySet, plan *Plan) (*table.Table, error) {
	start := time.Now()

	frame := primitives.Frame{
		Groups: es.Groups(),
		Order:  es.LoanIndex().Values,
	}
	derived := make([][]table.Value, plan.numDerived)

	for _, layer := range plan.layers[1:] {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.parallelism)
		for _, d := range layer {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				tr := plan.transforms[d.Primitive]
				out, err := tr.Transform(loanValues(es, derived, d.Base), frame)
				if err != nil {
					return fmt.Errorf("feature %s: %w", d.Name, err)
				}
				derived[d.slot] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	index, _ := es.Customers().Column(es.Relationship().ParentKey)
	columns := make([]table.Column, len(plan.Features)+1)
	columns[0] = index

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, d := range plan.Features {
		g.Go(func() error {
			values, err := s.customerValues(gctx, es, plan, derived, d)
			if err != nil {
				return fmt.Errorf("feature %s: %w", d.Name, err)
			}
			columns[d.slot+1] = table.Column{Name: d.Name, Type: d.Type, Values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ft, err := table.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("assemble feature table: %w", err)
	}

	s.logger.DebugContext(ctx, "feature synthesis complete",
		slog.Int("features", len(plan.Features)),
		slog.Int("customers", es.NumCustomers()),
		slog.Int("loans", es.NumLoans()),
		slog.Duration("duration", time.Since(start)),
	)
	return ft, nil
}

func (s *Synthesizer) customerValues(ctx context.Context, es *entityset.EntitySet, plan *Plan, derived [][]table.Value, d *Definition) ([]table.Value, error) {
	if d.Kind == KindIdentity {
		col, ok := es.Customers().Column(d.Source)
		if !ok {
			return nil, fmt.Errorf("customer column %s missing", d.Source)
		}
		return col.Values, nil
	}

	agg := plan.aggregates[d.Primitive]
	child := loanValues(es, derived, d.Base)
	groups := es.Groups()
	out := make([]table.Value, len(groups))
	buf := make([]table.Value, 0, 8)

	for i, rows := range groups {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		buf = buf[:0]
		for _, r := range rows {
			buf = append(buf, child[r])
		}
		v, err := agg.Aggregate(buf)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func loanValues(es *entityset.EntitySet, derived [][]table.Value, d *Definition) []table.Value {
	if d.Kind == KindIdentity {
		col, _ := es.Loans().Column(d.Source)
		return col.Values
	}
	return derived[d.slot]
}
