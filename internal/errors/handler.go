package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
)

// Problem types following RFC 7807
const (
	TypeUnknownPrimitive = "/errors/unknown-primitive"
	TypeTypeMismatch     = "/errors/type-mismatch"
	TypeUnknownColumn    = "/errors/unknown-column"
	TypeValidation       = "/errors/validation-error"
	TypeBadRequest       = "/errors/bad-request"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeTimeout          = "/errors/timeout"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeInternal         = "/errors/internal"
)

// ErrorHandler converts errors into problem responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts err to RFC 7807 format and responds. Client errors
// are logged at warn level, everything else at error level.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", string(debug.Stack()))
		}
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("problem", problem.Type),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	_ = render.Render(w, r, problem)
}

// ErrorToProblem maps an error to problem details. Domain errors carry
// their fields as extensions.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	return problemFor(err, r.URL.Path)
}

func problemFor(err error, instance string) *ProblemDetails {

	var (
		unknownPrimitive *primitives.UnknownPrimitiveError
		typeMismatch     *primitives.TypeMismatchError
		unknownColumn    *synthesis.UnknownColumnError
		validationErrs   validator.ValidationErrors
		problem          *ProblemDetails
		apiErr           *APIError
	)

	switch {
	case errors.As(err, &problem):
		return problem

	case errors.As(err, &unknownPrimitive):
		p := NewProblemDetails(http.StatusBadRequest, TypeUnknownPrimitive,
			"Unknown Primitive", unknownPrimitive.Error(), instance).
			WithExtension("primitive", unknownPrimitive.Name)
		if len(unknownPrimitive.Available) > 0 {
			p.WithExtension("available", unknownPrimitive.Available)
		}
		return p

	case errors.As(err, &typeMismatch):
		want := make([]string, len(typeMismatch.Want))
		for i, t := range typeMismatch.Want {
			want[i] = t.String()
		}
		p := NewProblemDetails(http.StatusBadRequest, TypeTypeMismatch,
			"Type Mismatch", typeMismatch.Error(), instance).
			WithExtension("primitive", typeMismatch.Primitive).
			WithExtension("accepts", want)
		if typeMismatch.Column != "" {
			p.WithExtension("column", typeMismatch.Column).
				WithExtension("column_type", typeMismatch.Got.String())
		}
		return p

	case errors.As(err, &unknownColumn):
		return NewProblemDetails(http.StatusBadRequest, TypeUnknownColumn,
			"Unknown Column", unknownColumn.Error(), instance).
			WithExtension("column", unknownColumn.Column).
			WithExtension("known", unknownColumn.Known)

	case errors.Is(err, synthesis.ErrInvalidDepth):
		return NewProblemDetails(http.StatusBadRequest, TypeValidation,
			"Validation Failed", err.Error(), instance).
			WithExtension("errors", []ValidationError{{Field: "max_depth", Message: err.Error()}})

	case errors.As(err, &validationErrs):
		fields := FromValidator(validationErrs)
		return NewProblemDetails(http.StatusBadRequest, TypeValidation,
			"Validation Failed", "Request validation failed", instance).
			WithExtension("errors", fields)

	case errors.As(err, &apiErr):
		return apiErrorToProblem(apiErr, instance)

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout,
			"Request Timeout", "The request took too long to process and was cancelled", instance)

	default:
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
			"Internal Server Error", "An unexpected error occurred while processing your request", instance)
	}
}

func apiErrorToProblem(apiErr *APIError, instance string) *ProblemDetails {
	problemType := TypeInternal
	title := http.StatusText(apiErr.StatusCode)
	switch apiErr.ErrorCode {
	case CodeValidationFailed:
		problemType, title = TypeValidation, "Validation Failed"
	case CodeInvalidRequest:
		problemType = TypeBadRequest
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeRateLimitExceeded:
		problemType = TypeRateLimit
	case CodeServiceUnavailable:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, title, apiErr.Message, instance).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		if fields, ok := apiErr.Details.([]ValidationError); ok {
			problem.WithExtension("errors", fields)
		} else {
			problem.WithExtension("details", apiErr.Details)
		}
	}
	return problem
}

// Kind returns the short problem name of err, such as "unknown-primitive",
// for use as a metric label.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(problemFor(err, "").Type, "/errors/")
}

// FromValidator converts validator errors to field messages keyed by the
// JSON field name.
func FromValidator(errs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// HandlePanic responds with a 500 problem after a recovered panic
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
	}
	_ = render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound,
		"Not Found", "The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	_ = render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusMethodNotAllowed, TypeMethodNotAllowed,
		"Method Not Allowed", fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context()))
	_ = render.Render(w, r, problem)
}
