package synthesis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDepth is returned for a negative maximum depth.
var ErrInvalidDepth = errors.New("max depth must not be negative")

// UnknownColumnError is returned when request options name a column that is
// not part of the entity set.
type UnknownColumnError struct {
	Column string   `json:"column"`
	Known  []string `json:"known,omitempty"`
}

// Error implements the error interface
func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q (known: %s)", e.Column, strings.Join(e.Known, ", "))
}
