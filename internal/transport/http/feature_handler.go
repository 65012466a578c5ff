package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/exporter"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/middleware"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/serializer"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/services"
	api "github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts/api/v1"
)

// FeatureServiceInterface is the part of services.FeatureService the
// handlers use.
type FeatureServiceInterface interface {
	RawFeatures(ctx context.Context, customerIDs []string) ([]serializer.Record, error)
	Engineer(ctx context.Context, req api.EngineerRequest) (*services.FeatureResult, error)
	Definitions(ctx context.Context, req api.EngineerRequest) (*api.DefinitionsResponse, error)
	Primitives() []api.PrimitiveInfo
}

// FeatureHandler serves the /features routes
type FeatureHandler struct {
	service       FeatureServiceInterface
	exporter      *exporter.Exporter
	validator     *middleware.Validator
	errorHandler  *apierrors.ErrorHandler
	maxDepthLimit int
	logger        *slog.Logger
}

// NewFeatureHandler creates a feature handler. maxDepthLimit bounds the
// max_depth query parameter.
func NewFeatureHandler(service FeatureServiceInterface, exp *exporter.Exporter, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, maxDepthLimit int, logger *slog.Logger) *FeatureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureHandler{
		service:       service,
		exporter:      exp,
		validator:     validator,
		errorHandler:  errorHandler,
		maxDepthLimit: maxDepthLimit,
		logger:        logger.With(slog.String("handler", "features")),
	}
}

// Routes returns the feature routes
func (h *FeatureHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/raw", h.GetRaw)
	r.Post("/engineer", h.Engineer)
	r.Get("/primitives", h.ListPrimitives)
	r.Post("/definitions", h.Definitions)
	return r
}

// GetRaw handles GET /features/raw?customer_id=...
func (h *FeatureHandler) GetRaw(w http.ResponseWriter, r *http.Request) {
	ids, _ := middleware.QueryList(r, "customer_id")
	records, err := h.service.RawFeatures(r.Context(), ids)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, records)
}

// Engineer handles POST /features/engineer. The selection comes from the
// JSON body, the query string, or both; body fields win. ?format=csv|xlsx
// returns a file instead of a JSON array.
func (h *FeatureHandler) Engineer(w http.ResponseWriter, r *http.Request) {
	format, err := middleware.QueryEnum(r, "format", formatNames(), string(exporter.FormatJSON))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req, err := h.engineerRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Engineer(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if exporter.Format(format) == exporter.FormatJSON {
		render.JSON(w, r, result.Records)
		return
	}
	h.export(w, r, exporter.Format(format), result)
}

// Definitions handles POST /features/definitions
func (h *FeatureHandler) Definitions(w http.ResponseWriter, r *http.Request) {
	req, err := h.engineerRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defs, err := h.service.Definitions(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, defs)
}

// ListPrimitives handles GET /features/primitives
func (h *FeatureHandler) ListPrimitives(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Primitives())
}

func (h *FeatureHandler) engineerRequest(r *http.Request) (api.EngineerRequest, error) {
	var req api.EngineerRequest
	if v, ok := middleware.QueryList(r, "transforms"); ok {
		req.Transforms = v
	}
	if v, ok := middleware.QueryList(r, "aggregations"); ok {
		req.Aggregations = v
	}
	if v, ok := middleware.QueryList(r, "customer_id"); ok {
		req.CustomerIDs = v
	}
	if r.URL.Query().Has("max_depth") {
		depth, err := middleware.QueryInt(r, "max_depth", 0, h.maxDepthLimit, 0)
		if err != nil {
			return req, err
		}
		req.MaxDepth = &depth
	}

	var body api.EngineerRequest
	if err := h.validator.DecodeJSON(r, &body); err != nil {
		return req, err
	}
	if body.Transforms != nil {
		req.Transforms = body.Transforms
	}
	if body.Aggregations != nil {
		req.Aggregations = body.Aggregations
	}
	if body.CustomerIDs != nil {
		req.CustomerIDs = body.CustomerIDs
	}
	if body.MaxDepth != nil {
		req.MaxDepth = body.MaxDepth
	}
	req.IgnoreColumns = body.IgnoreColumns
	req.PrimitiveOptions = body.PrimitiveOptions
	return req, nil
}

func (h *FeatureHandler) export(w http.ResponseWriter, r *http.Request, format exporter.Format, result *services.FeatureResult) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="features%s"`, format.Extension()))
	w.WriteHeader(http.StatusOK)

	// headers are gone at this point, so a failure can only be logged
	if err := h.exporter.Write(r.Context(), w, format, result.Schema.Names(), result.Records); err != nil {
		h.logger.ErrorContext(r.Context(), "feature export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}

func formatNames() []string {
	names := make([]string, len(exporter.Formats))
	for i, f := range exporter.Formats {
		names[i] = string(f)
	}
	return names
}
