package primitives

import (
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

var (
	numericInput  = []table.LogicalType{table.TypeNumeric}
	booleanInput  = []table.LogicalType{table.TypeBoolean}
	categoryInput = []table.LogicalType{table.TypeCategorical, table.TypeOrdinal}
	indexInput    = []table.LogicalType{table.TypeIndex}
)

func builtinAggregations() []Primitive {
	return []Primitive{
		&extremum{info: info{
			name: "max", kind: KindAggregation, inputs: numericInput, output: table.TypeNumeric,
			description: "Calculates the highest value, ignoring null values.",
		}, keep: func(candidate, current float64) bool { return candidate > current }},
		&extremum{info: info{
			name: "min", kind: KindAggregation, inputs: numericInput, output: table.TypeNumeric,
			description: "Calculates the smallest value, ignoring null values.",
		}, keep: func(candidate, current float64) bool { return candidate < current }},
		&mean{info: info{
			name: "mean", kind: KindAggregation, inputs: numericInput, output: table.TypeNumeric,
			description: "Computes the average for a list of values.",
		}},
		&count{info: info{
			name: "count", kind: KindAggregation, inputs: indexInput, output: table.TypeNumeric,
			description: "Determines the total number of child rows, excluding null values.",
		}},
		&percentTrue{info: info{
			name: "percent_true", kind: KindAggregation, inputs: booleanInput, output: table.TypeNumeric,
			description: "Determines the percent of true values.",
		}},
		&numUnique{info: info{
			name: "num_unique", kind: KindAggregation, inputs: categoryInput, output: table.TypeNumeric,
			description: "Determines the number of distinct values, ignoring null values.",
		}},
		&mode{info: info{
			name: "mode", kind: KindAggregation, inputs: categoryInput,
			description: "Determines the most commonly repeated value; ties go to the earliest value.",
		}},
	}
}

// numbers extracts the non-null numeric cells of a group.
func numbers(p Primitive, values []table.Value) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, mismatch(p, v)
		}
		out = append(out, f)
	}
	return out, nil
}

type extremum struct {
	info
	keep func(candidate, current float64) bool
}

func (e *extremum) Aggregate(values []table.Value) (table.Value, error) {
	nums, err := numbers(e, values)
	if err != nil || len(nums) == 0 {
		return table.Null(), err
	}
	best := nums[0]
	for _, f := range nums[1:] {
		if e.keep(f, best) {
			best = f
		}
	}
	return table.Number(best), nil
}

type mean struct{ info }

func (m *mean) Aggregate(values []table.Value) (table.Value, error) {
	nums, err := numbers(m, values)
	if err != nil || len(nums) == 0 {
		return table.Null(), err
	}
	var sum float64
	for _, f := range nums {
		sum += f
	}
	return table.Number(sum / float64(len(nums))), nil
}

type count struct{ info }

func (c *count) Aggregate(values []table.Value) (table.Value, error) {
	var n int64
	for _, v := range values {
		if !v.IsNull() {
			n++
		}
	}
	return table.Int(n), nil
}

type percentTrue struct{ info }

func (p *percentTrue) Aggregate(values []table.Value) (table.Value, error) {
	var total, truthy int
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		b, ok := v.Boolean()
		if !ok {
			return table.Null(), mismatch(p, v)
		}
		total++
		if b {
			truthy++
		}
	}
	if total == 0 {
		return table.Null(), nil
	}
	return table.Number(float64(truthy) / float64(total)), nil
}

func categoryCell(p Primitive, v table.Value) error {
	switch v.Kind() {
	case table.KindString, table.KindNumber:
		return nil
	default:
		return mismatch(p, v)
	}
}

type numUnique struct{ info }

func (u *numUnique) Aggregate(values []table.Value) (table.Value, error) {
	seen := make(map[table.Key]struct{})
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if err := categoryCell(u, v); err != nil {
			return table.Null(), err
		}
		seen[v.Key()] = struct{}{}
	}
	if len(seen) == 0 {
		return table.Null(), nil
	}
	return table.Int(int64(len(seen))), nil
}

type mode struct{ info }

// Aggregate returns the most frequent value. Among equally frequent values
// the one that occurs first in values wins.
func (m *mode) Aggregate(values []table.Value) (table.Value, error) {
	type tally struct {
		first int
		n     int
	}
	counts := make(map[table.Key]*tally)
	best := -1
	for i, v := range values {
		if v.IsNull() {
			continue
		}
		if err := categoryCell(m, v); err != nil {
			return table.Null(), err
		}
		t, ok := counts[v.Key()]
		if !ok {
			t = &tally{first: i}
			counts[v.Key()] = t
		}
		t.n++

		if best < 0 {
			best = i
			continue
		}
		cur := counts[values[best].Key()]
		if t.n > cur.n || (t.n == cur.n && t.first < cur.first) {
			best = t.first
		}
	}
	if best < 0 {
		return table.Null(), nil
	}
	return values[best], nil
}
