package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
)

// Validator decodes and validates request payloads. Field errors are
// reported under their JSON names.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator that reports JSON field names.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validation")),
	}
}

// Struct validates v against its tags. The validator errors are returned
// unchanged so the error handler can render them field by field.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// DecodeJSON reads a JSON body into dst and validates it. An empty body
// leaves dst untouched.
func (v *Validator) DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return v.Struct(dst)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return v.Struct(dst)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierrors.New(http.StatusRequestEntityTooLarge, apierrors.CodeInvalidRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		v.logger.DebugContext(r.Context(), "request body rejected", slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}
	if dec.More() {
		return apierrors.InvalidRequestWithError(errors.New("request body must hold a single JSON object"))
	}
	return v.Struct(dst)
}

// ContentTypeValidator rejects bodies whose content type is not listed.
// Requests without a body pass through.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeInvalidRequest,
				"Unsupported content type",
				map[string]any{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// QueryInt parses an integer query parameter within [min, max]. A missing
// parameter returns def.
func QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apierrors.ErrValidation(param, "must be a valid integer")
	}
	if n < min || n > max {
		return 0, apierrors.ErrValidation(param, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return n, nil
}

// QueryEnum returns the query parameter if it is one of allowed. A missing
// parameter returns def.
func QueryEnum(r *http.Request, param string, allowed []string, def string) (string, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def, nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a, nil
		}
	}
	return "", apierrors.ErrValidation(param, "must be one of: "+strings.Join(allowed, ", "))
}

// QueryList collects a repeatable query parameter. Comma separated values
// are split, so ?transforms=year,month and ?transforms=year&transforms=month
// are equivalent. The second result reports whether the parameter was given.
func QueryList(r *http.Request, param string) ([]string, bool) {
	raw, ok := r.URL.Query()[param]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}
