// Package exporter writes feature records as CSV, XLSX or JSON.
//
// Exports keep the field order of the serializer schema. Null cells are
// empty in CSV and XLSX and null in JSON.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	err := exp.Write(ctx, w, exporter.FormatCSV, schema.Names(), records)
//
//	// or, from the batch CLI
//	err = exp.WriteFile(ctx, "out/features.xlsx", exporter.FormatXLSX, schema.Names(), records)
package exporter
