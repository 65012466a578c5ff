package services

import (
	"fmt"

	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
)

// ErrDatasetNotLoaded is returned when a service was built without a
// snapshot. It renders as 503.
var ErrDatasetNotLoaded = fmt.Errorf("dataset not loaded: %w", apierrors.ErrServiceUnavailable)

func depthError(depth, limit int) error {
	return apierrors.ErrValidation("max_depth", fmt.Sprintf("must be between 0 and %d, got %d", limit, depth))
}
