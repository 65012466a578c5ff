package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// readSQLite reads the loans table of a SQLite database in rowid order.
func readSQLite(ctx context.Context, path string, b *builder) error {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%s: open database: %w", b.source, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping database: %w", b.source, err)
	}

	query := "SELECT " + strings.Join(Fields, ", ") + " FROM loans ORDER BY rowid"
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: query loans: %w", b.source, err)
	}
	defer rows.Close()

	scanned := make([]sql.NullString, len(Fields))
	dest := make([]any, len(Fields))
	for i := range scanned {
		dest[i] = &scanned[i]
	}

	err = readRows(ctx, b, Fields, func() ([]string, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		cells := make([]string, len(scanned))
		for i, s := range scanned {
			if s.Valid {
				cells[i] = s.String
			}
		}
		return cells, nil
	})
	if err != nil {
		return err
	}
	return rows.Err()
}
