package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of a workbook. The first non-empty row is
// the header.
func readXLSX(ctx context.Context, path string, b *builder) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%s: open workbook: %w", b.source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("%s: workbook has no sheets", b.source)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("%s: read sheet %q: %w", b.source, sheets[0], err)
	}

	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: missing header row", b.source)
	}

	i := 1
	return readRows(ctx, b, rows[0], func() ([]string, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		i++
		return rows[i-1], nil
	})
}
