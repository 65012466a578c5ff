package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// DefaultDateLayout is the day/month/year layout of loan_date.
const DefaultDateLayout = "2/1/2006"

// Loader reads input files into raw loan tables.
type Loader struct {
	dateLayout string
	logger     *slog.Logger
}

// NewLoader creates a loader. An empty layout selects DefaultDateLayout.
func NewLoader(dateLayout string, logger *slog.Logger) *Loader {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dateLayout: dateLayout,
		logger:     logger.With(slog.String("component", "dataset")),
	}
}

// Format returns the source format for a path, derived from its extension.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return "json", nil
	case ".csv":
		return "csv", nil
	case ".xlsx":
		return "xlsx", nil
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Load reads the file at path into a flat table with one row per loan in
// source order. Cells that fail to parse are reported as *ParseError.
func (l *Loader) Load(ctx context.Context, path string) (*table.Table, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	source := filepath.Base(path)
	b := newBuilder(source, l.dateLayout, 0)

	switch format {
	case "json", "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		if format == "json" {
			err = readJSON(ctx, f, b)
		} else {
			err = readCSV(ctx, f, b)
		}
		if err != nil {
			return nil, err
		}
	case "xlsx":
		if err := readXLSX(ctx, path, b); err != nil {
			return nil, err
		}
	case "sqlite":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		if err := readSQLite(ctx, path, b); err != nil {
			return nil, err
		}
	}

	raw, err := b.table()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("rows", raw.Rows()),
		slog.Duration("duration", time.Since(start)))
	return raw, nil
}
