package dataset

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for an input file whose extension has no
// reader.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ParseError describes a cell that could not be converted to its column
// type. Row is the zero-based loan position in the source.
type ParseError struct {
	Source string
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: field %s: %s (value %q)", e.Source, e.Row, e.Field, e.Reason, e.Value)
}
