package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/serializer"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/shared/testutil"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
	api "github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts/api/v1"
)

func newTestService(t *testing.T) *FeatureService {
	t.Helper()
	snap, err := dataset.NewSnapshot("fixture", testutil.RawTable(t, testutil.SampleLoans()))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	synth := synthesis.NewSynthesizer(primitives.Default(), 2, logger)
	return NewFeatureService(snap, synth, config.Default().Features, nil, logger)
}

func intPtr(n int) *int { return &n }

func definitionNames(defs []synthesis.Definition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func customerIDs(t *testing.T, records []serializer.Record) []string {
	t.Helper()
	ids := make([]string, 0, len(records))
	for _, r := range records {
		v, ok := r.Get("customer_ID")
		require.True(t, ok)
		ids = append(ids, v.(string))
	}
	return ids
}

func TestFeatureService_RawFeatures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	all, err := svc.RawFeatures(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(testutil.SampleLoans()))

	filtered, err := svc.RawFeatures(ctx, []string{"296", "does-not-exist", "1090"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1090", "1090", "296"}, customerIDs(t, filtered))

	first := filtered[0]
	names := make([]string, 0)
	for _, f := range first.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"customer_ID", "loan_date", "amount", "fee", "loan_status", "term", "annual_income"}, names)
	date, _ := first.Get("loan_date")
	assert.Equal(t, "2016-10-01", date)

	none, err := svc.RawFeatures(ctx, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFeatureService_RawFeaturesKeepRowIncome(t *testing.T) {
	loans := testutil.SampleLoans()
	loans[1].AnnualIncome = 50000
	snap, err := dataset.NewSnapshot("fixture", testutil.RawTable(t, loans))
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	svc := NewFeatureService(snap, synthesis.NewSynthesizer(primitives.Default(), 2, logger), config.Default().Features, nil, logger)

	raw, err := svc.RawFeatures(context.Background(), []string{"1090"})
	require.NoError(t, err)
	require.Len(t, raw, 2)
	first, _ := raw[0].Get("annual_income")
	second, _ := raw[1].Get("annual_income")
	assert.Equal(t, 41333.0, first)
	assert.Equal(t, 50000.0, second)

	res, err := svc.Engineer(context.Background(), api.EngineerRequest{CustomerIDs: []string{"1090"}, MaxDepth: intPtr(0)})
	require.NoError(t, err)
	income, _ := res.Records[0].Get("annual_income")
	assert.Equal(t, 41333.0, income, "engineered features keep the first value")
}

func TestFeatureService_Engineer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		res, err := svc.Engineer(ctx, api.EngineerRequest{})
		require.NoError(t, err)
		if diff := cmp.Diff(testutil.SampleDefaultFeatures(), definitionNames(res.Definitions)); diff != "" {
			t.Errorf("definitions mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, append([]string{"customer_ID"}, testutil.SampleDefaultFeatures()...), res.Schema.Names())
		assert.Equal(t, []string{"1090", "42", "296"}, customerIDs(t, res.Records))

		rec := res.Records[0]
		v, _ := rec.Get("MEAN(loans.DISTANCE_TO_HOLIDAY(loan_date))")
		assert.Equal(t, 47.0, v)
		v, _ = rec.Get("MEAN(loans.TIME_SINCE_PREVIOUS(loan_date))")
		assert.Equal(t, 39312000.0, v)

		single := res.Records[2]
		v, _ = single.Get("MEAN(loans.DISTANCE_TO_HOLIDAY(loan_date))")
		assert.Equal(t, 137.0, v)
		v, ok := single.Get("MEAN(loans.TIME_SINCE_PREVIOUS(loan_date))")
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("schema matches records", func(t *testing.T) {
		res, err := svc.Engineer(ctx, api.EngineerRequest{MaxDepth: intPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, append([]string{"customer_ID"}, testutil.SampleDepthOneFeatures()...), res.Schema.Names())
		for _, rec := range res.Records {
			require.Len(t, rec.Fields(), len(res.Schema))
			for i, f := range rec.Fields() {
				assert.Equal(t, res.Schema[i].Name, f.Name)
			}
		}
	})

	t.Run("customer filter", func(t *testing.T) {
		res, err := svc.Engineer(ctx, api.EngineerRequest{CustomerIDs: []string{"296", "missing"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"296"}, customerIDs(t, res.Records))
	})

	t.Run("filter matching nobody", func(t *testing.T) {
		res, err := svc.Engineer(ctx, api.EngineerRequest{CustomerIDs: []string{}})
		require.NoError(t, err)
		assert.NotNil(t, res.Records)
		assert.Empty(t, res.Records)
	})

	t.Run("explicit empty selection", func(t *testing.T) {
		res, err := svc.Engineer(ctx, api.EngineerRequest{Transforms: []string{}, Aggregations: []string{}})
		require.NoError(t, err)
		assert.Equal(t, []string{"customer_ID", "annual_income"}, res.Schema.Names())
	})
}

func TestFeatureService_EngineerErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Engineer(ctx, api.EngineerRequest{Aggregations: []string{"median"}})
	var unknown *primitives.UnknownPrimitiveError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "median", unknown.Name)

	_, err = svc.Engineer(ctx, api.EngineerRequest{IgnoreColumns: []string{"salary"}})
	var unknownCol *synthesis.UnknownColumnError
	require.ErrorAs(t, err, &unknownCol)

	_, err = svc.Engineer(ctx, api.EngineerRequest{
		Aggregations:     []string{"mean"},
		PrimitiveOptions: map[string]api.PrimitiveOptions{"mean": {IncludeColumns: []string{"term"}}},
	})
	var mismatch *primitives.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	_, err = svc.Engineer(ctx, api.EngineerRequest{MaxDepth: intPtr(6)})
	require.Error(t, err)
	assert.Equal(t, "validation-error", apierrors.Kind(err))

	_, err = svc.Engineer(ctx, api.EngineerRequest{MaxDepth: intPtr(-1)})
	assert.Equal(t, "validation-error", apierrors.Kind(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Engineer(cancelled, api.EngineerRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeatureService_Concurrent(t *testing.T) {
	svc := newTestService(t)
	want, err := svc.Engineer(context.Background(), api.EngineerRequest{})
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			got, err := svc.Engineer(context.Background(), api.EngineerRequest{})
			if err != nil {
				return err
			}
			assert.Equal(t, want.Records, got.Records)
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestFeatureService_Definitions(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Definitions(context.Background(), api.EngineerRequest{
		Transforms:   []string{"month"},
		Aggregations: []string{"mode"},
	})
	require.NoError(t, err)
	require.Equal(t, res.Count, len(res.Features))

	byName := make(map[string]api.FeatureDefinition, res.Count)
	for _, f := range res.Features {
		byName[f.Name] = f
	}
	month, ok := byName["MODE(loans.MONTH(loan_date))"]
	require.True(t, ok)
	assert.Equal(t, []string{"mode", "month"}, month.Chain)
	assert.Equal(t, "loan_date", month.Source)
	assert.Equal(t, 1, month.Depth)
	assert.Equal(t, "ordinal", month.Type)

	income := byName["annual_income"]
	assert.Equal(t, "identity", income.Kind)
	assert.Empty(t, income.Chain)
}

func TestFeatureService_Primitives(t *testing.T) {
	svc := newTestService(t)
	list := svc.Primitives()
	require.Len(t, list, 15)

	byName := make(map[string]api.PrimitiveInfo)
	for _, p := range list {
		byName[p.Name] = p
	}
	assert.Equal(t, "aggregation", byName["count"].Kind)
	assert.Equal(t, []string{"index"}, byName["count"].InputTypes)
	assert.Equal(t, "numeric", byName["count"].OutputType)
	assert.Equal(t, "transform", byName["time_since_previous"].Kind)
	assert.Empty(t, byName["mode"].OutputType)
}

func TestFeatureService_NoSnapshot(t *testing.T) {
	svc := NewFeatureService(nil, synthesis.NewSynthesizer(primitives.Default(), 1, nil), config.Default().Features, nil, nil)

	_, err := svc.RawFeatures(context.Background(), nil)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	_, err = svc.Engineer(context.Background(), api.EngineerRequest{})
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
	assert.Equal(t, "service-unavailable", apierrors.Kind(err))
}
