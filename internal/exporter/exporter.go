package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/serializer"
)

// SheetName is the worksheet that XLSX exports write to.
const SheetName = "features"

// Exporter writes records in a chosen format.
type Exporter struct {
	logger *slog.Logger
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool
}

// New creates an exporter. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger.With(slog.String("component", "exporter"))}
}

// Write encodes records to w. names fixes the column order for CSV and
// XLSX; a record lacking a name gets an empty cell.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format, names []string, records []serializer.Record) error {
	var err error
	switch format {
	case FormatCSV:
		err = e.writeCSV(ctx, w, names, records)
	case FormatXLSX:
		err = e.writeXLSX(ctx, w, names, records)
	case FormatJSON:
		err = writeJSON(w, records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	e.logger.DebugContext(ctx, "export written",
		slog.String("format", string(format)),
		slog.Int("columns", len(names)),
		slog.Int("records", len(records)))
	return nil
}

// WriteFile writes records to path, creating parent directories. The file
// is replaced if it exists.
func (e *Exporter) WriteFile(ctx context.Context, path string, format Format, names []string, records []serializer.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := e.Write(ctx, file, format, names, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "export file written",
		slog.String("path", path),
		slog.Int("records", len(records)))
	return nil
}

func rowValues(names []string, rec serializer.Record) []any {
	out := make([]any, len(names))
	for i, name := range names {
		out[i], _ = rec.Get(name)
	}
	return out
}

func (e *Exporter) writeCSV(ctx context.Context, w io.Writer, names []string, records []serializer.Record) error {
	if e.BOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	line := make([]string, len(names))
	for i, rec := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for c, v := range rowValues(names, rec) {
			line[c] = formatCell(v)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Exporter) writeXLSX(ctx context.Context, w io.Writer, names []string, records []serializer.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, rec := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowValues(names, rec)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func writeJSON(w io.Writer, records []serializer.Record) error {
	if records == nil {
		records = []serializer.Record{}
	}
	return json.NewEncoder(w).Encode(records)
}
