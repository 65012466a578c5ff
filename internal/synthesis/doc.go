// Package synthesis implements deep feature synthesis over the customer/loan
// entity set.
//
// Synthesis runs in two phases. Plan resolves the requested primitives and
// enumerates feature definitions without touching any data:
//
//   - depth 0: customer columns passed through, COUNT(loans), and every
//     requested aggregation of every compatible loan column
//   - depth d: every requested transform applied to the loan features of
//     depth d-1, each new loan feature then reduced by every compatible
//     aggregation
//
// A definition chain never holds more than MaxDepth primitives, so the
// default of 2 yields AGG(loans.TRANSFORM(column)) at most. Definitions with
// the same primitive chain and source column are computed once.
//
// Synthesize executes a plan. Transform columns are computed layer by layer
// at loan grain; aggregation columns are computed concurrently, each into a
// slot fixed by the plan, so the resulting table does not depend on
// scheduling. The entity set is only read.
package synthesis
