package table

import (
	"fmt"
)

// Column is a named, typed sequence of cells. Values must not be modified
// once the column has been handed to New.
type Column struct {
	Name   string
	Type   LogicalType
	Values []Value
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	return len(c.Values)
}

// SchemaError reports a column that violates the table schema.
type SchemaError struct {
	Column string
	Row    int
	Reason string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("table: column %q row %d: %s", e.Column, e.Row, e.Reason)
	}
	return fmt.Sprintf("table: column %q: %s", e.Column, e.Reason)
}

// Table is an immutable ordered set of equally sized columns.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New validates the columns and assembles them into a table. Column names
// must be unique and non-empty, all columns must have the same length, and
// every cell must be compatible with its column's logical type.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if col.Name == "" {
			return nil, &SchemaError{Column: fmt.Sprintf("#%d", i), Row: -1, Reason: "empty column name"}
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, &SchemaError{Column: col.Name, Row: -1, Reason: "duplicate column"}
		}
		if col.Type == TypeUnknown {
			return nil, &SchemaError{Column: col.Name, Row: -1, Reason: "unknown logical type"}
		}
		if i == 0 {
			t.rows = len(col.Values)
		} else if len(col.Values) != t.rows {
			return nil, &SchemaError{
				Column: col.Name,
				Row:    -1,
				Reason: fmt.Sprintf("has %d rows, expected %d", len(col.Values), t.rows),
			}
		}
		for row, v := range col.Values {
			if !col.Type.accepts(v.Kind()) {
				return nil, &SchemaError{
					Column: col.Name,
					Row:    row,
					Reason: fmt.Sprintf("%s value in %s column", v.Kind(), col.Type),
				}
			}
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}

	return t, nil
}

// Rows returns the number of rows
func (t *Table) Rows() int {
	return t.rows
}

// Columns returns the columns in schema order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Names returns the column names in schema order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Has reports whether the table has a column with the given name
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{
		columns: make([]Column, len(t.columns)),
		index:   t.index,
		rows:    len(rows),
	}
	for i, col := range t.columns {
		values := make([]Value, len(rows))
		for j, r := range rows {
			values[j] = col.Values[r]
		}
		out.columns[i] = Column{Name: col.Name, Type: col.Type, Values: values}
	}
	return out
}
