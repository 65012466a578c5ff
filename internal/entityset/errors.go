package entityset

import (
	"fmt"
)

// IntegrityError reports a violation of the customer/loan relationship or
// of a primary key.
type IntegrityError struct {
	Entity string `json:"entity"`
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *IntegrityError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("integrity: %s row %d (key %q): %s", e.Entity, e.Row, e.Key, e.Reason)
	}
	return fmt.Sprintf("integrity: %s row %d: %s", e.Entity, e.Row, e.Reason)
}

func newIntegrityError(entity string, row int, key, format string, args ...any) *IntegrityError {
	return &IntegrityError{
		Entity: entity,
		Row:    row,
		Key:    key,
		Reason: fmt.Sprintf(format, args...),
	}
}
