// Package primitives implements the closed catalog of feature primitives
// used by deep feature synthesis.
//
// # Kinds
//
// An Aggregation reduces the loans of one customer to a single value:
//
//	max, min, mean, count, percent_true, num_unique, mode
//
// A Transform maps a loan column to a new loan column of the same length:
//
//	year, month, day, day_of_year, is_month_end, is_month_start,
//	distance_to_holiday, time_since_previous
//
// Every primitive declares the logical types it accepts and the type it
// produces. Synthesis only pairs a primitive with a column whose type is in
// InputTypes; applying one to anything else returns a TypeMismatchError.
//
// # Nulls
//
// Aggregations skip null cells. A group that is empty or entirely null
// aggregates to null, with the exception of count, which returns 0.
// Transforms map a null input cell to a null output cell.
//
// # Lookup
//
// Catalog.Resolve is case-insensitive and trims surrounding whitespace.
// Unknown names fail with UnknownPrimitiveError.
//
//	catalog := primitives.Default()
//	mean, err := catalog.ResolveAggregation("MEAN")
//	if err != nil {
//	    return err
//	}
//	v, err := mean.Aggregate(values)
package primitives
