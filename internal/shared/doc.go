// Package shared holds code used by several packages that belongs to no
// single one of them. At present that is the testutil subpackage: the
// sample loan fixtures every engine test builds on, and an in-memory slog
// handler for asserting on log output.
package shared
