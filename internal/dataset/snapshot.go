package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// Snapshot is the loaded dataset. It is never modified after Open returns
// and may be shared between goroutines.
type Snapshot struct {
	Source   string
	LoadedAt time.Time
	Raw      *table.Table
	Entities *entityset.EntitySet
}

// Open loads path and builds its entity set. Customers whose annual_income
// differs between loans are logged as a warning; the first value is kept.
func Open(ctx context.Context, path, dateLayout string, logger *slog.Logger) (*Snapshot, error) {
	loader := NewLoader(dateLayout, logger)
	raw, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(path, raw)
	if err != nil {
		return nil, err
	}

	if conflicts := snap.Entities.IncomeConflicts(); len(conflicts) > 0 {
		loader.logger.WarnContext(ctx, "annual_income differs between loans of the same customer, keeping the first value",
			slog.Int("customers", len(conflicts)),
			slog.Any("customer_ids", head(conflicts, 10)))
	}
	loader.logger.InfoContext(ctx, "entity set built",
		slog.Int("customers", snap.Entities.NumCustomers()),
		slog.Int("loans", snap.Entities.NumLoans()))
	return snap, nil
}

// NewSnapshot wraps an already loaded raw table.
func NewSnapshot(source string, raw *table.Table) (*Snapshot, error) {
	es, err := entityset.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("build entity set: %w", err)
	}
	return &Snapshot{
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Raw:      raw,
		Entities: es,
	}, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
