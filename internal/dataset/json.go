package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// scalar accepts a JSON string, number, boolean or null.
type scalar cell

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = scalar{}
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(textCell(str))
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("expected a scalar, got %s", data)
	default:
		*s = scalar(textCell(string(data)))
	}
	return nil
}

type jsonDocument struct {
	Data []struct {
		Loans []map[string]scalar `json:"loans"`
	} `json:"data"`
}

func readJSON(ctx context.Context, r io.Reader, b *builder) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc jsonDocument
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%s: decode: %w", b.source, err)
	}

	row := 0
	for _, block := range doc.Data {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, loan := range block.Loans {
			rec := make(record, len(Fields))
			for k, v := range loan {
				rec[normalizeField(k)] = cell(v)
			}
			if err := b.add(row, rec); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

// normalizeField maps a header or key to its canonical field name, ignoring
// case and surrounding space.
func normalizeField(name string) string {
	name = strings.TrimSpace(name)
	for _, f := range Fields {
		if strings.EqualFold(f, name) {
			return f
		}
	}
	return name
}
