package synthesis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/shared/testutil"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
)

func generatedEntitySet(b *testing.B, customers, loansPerCustomer int) *entityset.EntitySet {
	b.Helper()
	terms := []string{"short", "long"}
	var loans []testutil.LoanFixture
	for c := 0; c < customers; c++ {
		for l := 0; l < loansPerCustomer; l++ {
			loans = append(loans, testutil.LoanFixture{
				CustomerID:   fmt.Sprintf("%d", c),
				LoanDate:     fmt.Sprintf("%02d/%02d/%d", 1+(c+l)%28, 1+l%12, 2015+l%4),
				Amount:       1000 + (c*37+l*11)%5000,
				Fee:          10 + (c+l)%200,
				LoanStatus:   (c + l) % 2,
				Term:         terms[(c*l)%2],
				AnnualIncome: 20000 + c%50000,
			})
		}
	}
	es, err := entityset.Build(testutil.RawTable(b, loans))
	if err != nil {
		b.Fatal(err)
	}
	return es
}

func BenchmarkSynthesizeDefault(b *testing.B) {
	es := generatedEntitySet(b, 2000, 5)
	req := synthesis.NewRequest(defaultTransforms, defaultAggregations)

	for _, parallelism := range []int{1, 4} {
		s := synthesis.NewSynthesizer(primitives.Default(), parallelism, nil)
		b.Run(fmt.Sprintf("parallelism=%d", parallelism), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, _, err := s.Synthesize(context.Background(), es, req); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPlan(b *testing.B) {
	es := generatedEntitySet(b, 10, 2)
	req := synthesis.NewRequest(defaultTransforms, defaultAggregations)
	catalog := primitives.Default()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := synthesis.NewPlan(catalog, es, req); err != nil {
			b.Fatal(err)
		}
	}
}
