// Package entityset models the two-entity relational graph that feature
// synthesis runs over: customers, and the loans that belong to them.
//
// Build splits a flat loan table into a deduplicated Customer projection and
// a Loan projection with a synthetic sequential loan_ID, then checks
// referential integrity. The resulting EntitySet is read-only. Subset
// produces a restricted copy for per-request customer filters.
package entityset
