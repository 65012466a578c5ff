// Package api contains the v1 HTTP contract of the feature service.
package api

// EngineerRequest selects the primitives, depth and customers of one
// feature synthesis run. Nil lists fall back to the configured defaults;
// an empty list disables that primitive kind.
type EngineerRequest struct {
	Transforms       []string                    `json:"transforms" validate:"omitempty,dive,required"`
	Aggregations     []string                    `json:"aggregations" validate:"omitempty,dive,required"`
	CustomerIDs      []string                    `json:"customer_id" validate:"omitempty,dive,required"`
	MaxDepth         *int                        `json:"max_depth" validate:"omitempty,min=0"`
	IgnoreColumns    []string                    `json:"ignore_columns" validate:"omitempty,dive,required"`
	PrimitiveOptions map[string]PrimitiveOptions `json:"primitive_options" validate:"omitempty,dive"`
}

// PrimitiveOptions restricts one primitive to features derived from the
// listed loan columns.
type PrimitiveOptions struct {
	IncludeColumns []string `json:"include_columns" validate:"omitempty,dive,required"`
}

// RawRequest filters raw records by customer id. No ids means every
// customer.
type RawRequest struct {
	CustomerIDs []string `json:"customer_id" validate:"omitempty,dive,required"`
}
