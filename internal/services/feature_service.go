package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/infrastructure"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/serializer"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
	api "github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts/api/v1"
)

// Feature operations, used as the metric and log label.
const (
	OpRaw         = "raw"
	OpEngineer    = "engineer"
	OpDefinitions = "definitions"
)

// FeatureResult is the outcome of one engineer request.
type FeatureResult struct {
	// Schema is the field list of every record, known before execution.
	Schema      serializer.Schema
	Definitions []synthesis.Definition
	Records     []serializer.Record
}

// FeatureService serves raw and engineered features from an immutable
// snapshot. It keeps no per-request state and is safe for concurrent use.
type FeatureService struct {
	snapshot    *dataset.Snapshot
	synthesizer *synthesis.Synthesizer
	defaults    config.FeaturesConfig
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
}

// NewFeatureService creates a feature service. metrics may be nil.
func NewFeatureService(snapshot *dataset.Snapshot, synthesizer *synthesis.Synthesizer, defaults config.FeaturesConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *FeatureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureService{
		snapshot:    snapshot,
		synthesizer: synthesizer,
		defaults:    defaults,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "feature_service")),
	}
}

// RawFeatures returns the raw loan rows of the given customers in
// ingestion order. No ids selects every customer; ids
// that match no customer contribute nothing.
func (s *FeatureService) RawFeatures(ctx context.Context, customerIDs []string) ([]serializer.Record, error) {
	if s.snapshot == nil {
		return nil, ErrDatasetNotLoaded
	}
	start := time.Now()

	var ids []string
	if len(customerIDs) > 0 {
		ids = customerIDs
	}
	records := serializer.RawRecords(s.snapshot.Raw, ids)

	s.metrics.RecordFeatureRequest(ctx, OpRaw, time.Since(start), 0, "")
	s.logger.DebugContext(ctx, "raw features served",
		slog.Int("requested_ids", len(customerIDs)),
		slog.Int("records", len(records)))
	return records, nil
}

// Engineer synthesizes the customer feature table for req. The result has
// one record per selected customer; an id filter matching nobody yields an
// empty, non-nil record list.
func (s *FeatureService) Engineer(ctx context.Context, req api.EngineerRequest) (result *FeatureResult, err error) {
	start := time.Now()
	defer func() {
		features := 0
		if result != nil {
			features = len(result.Definitions)
		}
		s.metrics.RecordFeatureRequest(ctx, OpEngineer, time.Since(start), features, apierrors.Kind(err))
	}()

	if s.snapshot == nil {
		return nil, ErrDatasetNotLoaded
	}
	sreq, err := s.synthesisRequest(req)
	if err != nil {
		return nil, err
	}

	es := s.snapshot.Entities
	if req.CustomerIDs != nil {
		es = es.Subset(req.CustomerIDs)
	}

	plan, err := s.synthesizer.Plan(es, sreq)
	if err != nil {
		s.logger.WarnContext(ctx, "feature request rejected", slog.String("error", err.Error()))
		return nil, err
	}
	defs := plan.Definitions()
	schema := serializer.FeatureSchema(defs)

	ft, err := s.synthesizer.Execute(ctx, es, plan)
	if err != nil {
		return nil, err
	}
	records, err := serializer.ToRecords(schema, ft)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []serializer.Record{}
	}

	s.logger.InfoContext(ctx, "features engineered",
		slog.Int("customers", es.NumCustomers()),
		slog.Int("features", len(defs)),
		slog.Int("max_depth", sreq.MaxDepth),
		slog.Duration("duration", time.Since(start)))
	return &FeatureResult{Schema: schema, Definitions: defs, Records: records}, nil
}

// Definitions plans req and describes the resulting features without
// computing any values.
func (s *FeatureService) Definitions(ctx context.Context, req api.EngineerRequest) (_ *api.DefinitionsResponse, err error) {
	start := time.Now()
	var count int
	defer func() {
		s.metrics.RecordFeatureRequest(ctx, OpDefinitions, time.Since(start), count, apierrors.Kind(err))
	}()

	if s.snapshot == nil {
		return nil, ErrDatasetNotLoaded
	}
	sreq, err := s.synthesisRequest(req)
	if err != nil {
		return nil, err
	}
	plan, err := s.synthesizer.Plan(s.snapshot.Entities, sreq)
	if err != nil {
		return nil, err
	}

	defs := plan.Definitions()
	count = len(defs)
	out := &api.DefinitionsResponse{Count: count, Features: make([]api.FeatureDefinition, len(defs))}
	for i := range defs {
		out.Features[i] = describeDefinition(&defs[i])
	}
	return out, nil
}

// Primitives lists the catalog in registration order.
func (s *FeatureService) Primitives() []api.PrimitiveInfo {
	list := s.synthesizer.Catalog().List()
	out := make([]api.PrimitiveInfo, len(list))
	for i, p := range list {
		out[i] = describePrimitive(p)
	}
	return out
}

// synthesisRequest applies the configured defaults to req. A nil list takes
// the default selection, an empty one disables that primitive kind.
func (s *FeatureService) synthesisRequest(req api.EngineerRequest) (synthesis.Request, error) {
	transforms := req.Transforms
	if transforms == nil {
		transforms = s.defaults.Transforms
	}
	aggregations := req.Aggregations
	if aggregations == nil {
		aggregations = s.defaults.Aggregations
	}

	depth := s.defaults.MaxDepth
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}
	if depth < 0 || (s.defaults.MaxDepthLimit > 0 && depth > s.defaults.MaxDepthLimit) {
		return synthesis.Request{}, depthError(depth, s.defaults.MaxDepthLimit)
	}

	sreq := synthesis.NewRequest(transforms, aggregations)
	sreq.MaxDepth = depth
	sreq.IgnoreColumns = req.IgnoreColumns
	if len(req.PrimitiveOptions) > 0 {
		sreq.PrimitiveOptions = make(map[string]synthesis.PrimitiveOptions, len(req.PrimitiveOptions))
		for name, opts := range req.PrimitiveOptions {
			sreq.PrimitiveOptions[name] = synthesis.PrimitiveOptions{IncludeColumns: opts.IncludeColumns}
		}
	}
	return sreq, nil
}

func describeDefinition(d *synthesis.Definition) api.FeatureDefinition {
	chain := d.Chain()
	if chain == nil {
		chain = []string{}
	}
	return api.FeatureDefinition{
		Name:      d.Name,
		Entity:    d.Entity,
		Kind:      d.Kind.String(),
		Depth:     d.Depth,
		Primitive: d.Primitive,
		Chain:     chain,
		Source:    d.Source,
		Type:      d.Type.String(),
	}
}

func describePrimitive(p primitives.Primitive) api.PrimitiveInfo {
	inputs := make([]string, len(p.InputTypes()))
	for i, t := range p.InputTypes() {
		inputs[i] = t.String()
	}
	info := api.PrimitiveInfo{
		Name:        p.Name(),
		Kind:        p.Kind().String(),
		InputTypes:  inputs,
		Description: p.Description(),
	}
	// primitives whose output follows the input type report none
	if out := p.OutputType(table.TypeUnknown); out != table.TypeUnknown {
		info.OutputType = out.String()
	}
	return info
}
