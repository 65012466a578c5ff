package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readRows types header-led string rows, as produced by the CSV and XLSX
// sources. Missing trailing cells are null.
func readRows(ctx context.Context, b *builder, header []string, next func() ([]string, error)) error {
	if len(header) == 0 {
		return fmt.Errorf("%s: missing header row", b.source)
	}
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[normalizeField(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := positions[Fields[0]]; !ok {
		return fmt.Errorf("%s: header has no %s column", b.source, Fields[0])
	}

	for row := 0; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cells, err := next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: row %d: %w", b.source, row, err)
		}
		if blank(cells) {
			row--
			continue
		}
		rec := make(record, len(Fields))
		for _, f := range Fields {
			if i, ok := positions[f]; ok && i < len(cells) {
				rec[f] = textCell(cells[i])
			}
		}
		if err := b.add(row, rec); err != nil {
			return err
		}
	}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(ctx context.Context, r io.Reader, b *builder) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: missing header row", b.source)
	}
	if err != nil {
		return fmt.Errorf("%s: header: %w", b.source, err)
	}
	return readRows(ctx, b, header, cr.Read)
}
