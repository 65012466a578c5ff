// Package serializer converts feature tables into transport records with
// a fixed field order and explicit nulls.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// FieldSpec names one output field and its logical type.
type FieldSpec struct {
	Name string            `json:"name"`
	Type table.LogicalType `json:"-"`
}

// Schema is the ordered field list of a response.
type Schema []FieldSpec

// Names returns the field names in order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// FeatureSchema derives the response fields from feature definitions, so
// the shape of a response is known before any value is computed.
func FeatureSchema(defs []synthesis.Definition) Schema {
	schema := make(Schema, 0, len(defs)+1)
	schema = append(schema, FieldSpec{Name: entityset.CustomerID, Type: table.TypeIndex})
	for _, d := range defs {
		schema = append(schema, FieldSpec{Name: d.Name, Type: d.Type})
	}
	return schema
}

// Field is one name/value pair of a record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of fields. It marshals to a JSON object whose
// keys keep the record order.
type Record struct {
	fields []Field
}

// NewRecord creates a record from fields
func NewRecord(fields ...Field) Record {
	return Record{fields: fields}
}

// Fields returns the fields in order
func (r Record) Fields() []Field {
	return r.fields
}

// Get returns the value of a field
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Scalar converts a cell to its wire form: nil for a missing value, float64
// for numbers, bool, string, and an ISO-8601 date string for datetimes.
func Scalar(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		return f
	case table.KindBool:
		b, _ := v.Boolean()
		return b
	case table.KindString:
		s, _ := v.Text()
		return s
	case table.KindTime:
		return v.String()
	default:
		return nil
	}
}

// ToTransportRecords converts every row of t to a record, fields in column
// order.
func ToTransportRecords(t *table.Table) []Record {
	cols := t.Columns()
	records := make([]Record, t.Rows())
	for r := range records {
		fields := make([]Field, len(cols))
		for c, col := range cols {
			fields[c] = Field{Name: col.Name, Value: Scalar(col.Values[r])}
		}
		records[r] = Record{fields: fields}
	}
	return records
}

// ToRecords converts t after checking that its columns match schema.
func ToRecords(schema Schema, t *table.Table) ([]Record, error) {
	names := t.Names()
	if len(names) != len(schema) {
		return nil, fmt.Errorf("serializer: table has %d columns, schema has %d", len(names), len(schema))
	}
	for i, f := range schema {
		if names[i] != f.Name {
			return nil, fmt.Errorf("serializer: column %d is %q, schema expects %q", i, names[i], f.Name)
		}
	}
	return ToTransportRecords(t), nil
}

// RawRecords emits the rows of the raw loan table as loaded, in ingestion
// order. A non-nil ids keeps only rows whose customer_ID is listed. Values
// are never replaced by the deduplicated customer attributes, so a customer
// whose annual_income varies shows each row's own value.
func RawRecords(raw *table.Table, ids []string) []Record {
	rows := make([]int, 0, raw.Rows())
	if ids == nil {
		for r := 0; r < raw.Rows(); r++ {
			rows = append(rows, r)
		}
	} else {
		want := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
		col, _ := raw.Column(entityset.CustomerID)
		for r, v := range col.Values {
			if _, ok := want[v.String()]; ok {
				rows = append(rows, r)
			}
		}
	}

	cols := raw.Columns()
	records := make([]Record, len(rows))
	for i, r := range rows {
		fields := make([]Field, len(cols))
		for c, col := range cols {
			fields[c] = Field{Name: col.Name, Value: Scalar(col.Values[r])}
		}
		records[i] = Record{fields: fields}
	}
	return records
}
