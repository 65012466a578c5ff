// Package table provides an immutable, column-oriented table of nullable
// typed cells.
//
// Every column carries a LogicalType that tells feature synthesis which
// primitives may consume it. Values are stored as Value cells so a missing
// entry is explicit rather than encoded as a NaN or zero value.
//
// Tables are validated on construction and never modified afterwards. Take
// returns a new table over a subset of rows and leaves the receiver intact,
// which is what allows one loaded dataset to be shared by concurrent
// requests without locking.
package table
