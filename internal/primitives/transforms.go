package primitives

import (
	"sort"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

var datetimeInput = []table.LogicalType{table.TypeDatetime}

func builtinTransforms(holidays *HolidayCalendar) []Primitive {
	return []Primitive{
		&datePart{info: info{
			name: "year", kind: KindTransform, inputs: datetimeInput, output: table.TypeOrdinal,
			description: "Determines the year value of a datetime.",
		}, part: func(t time.Time) table.Value { return table.Int(int64(t.Year())) }},
		&datePart{info: info{
			name: "month", kind: KindTransform, inputs: datetimeInput, output: table.TypeOrdinal,
			description: "Determines the month value of a datetime.",
		}, part: func(t time.Time) table.Value { return table.Int(int64(t.Month())) }},
		&datePart{info: info{
			name: "day", kind: KindTransform, inputs: datetimeInput, output: table.TypeOrdinal,
			description: "Determines the day of the month from a datetime.",
		}, part: func(t time.Time) table.Value { return table.Int(int64(t.Day())) }},
		&datePart{info: info{
			name: "day_of_year", kind: KindTransform, inputs: datetimeInput, output: table.TypeOrdinal,
			description: "Determines the ordinal day of the year from the given datetime.",
		}, part: func(t time.Time) table.Value { return table.Int(int64(t.YearDay())) }},
		&datePart{info: info{
			name: "is_month_end", kind: KindTransform, inputs: datetimeInput, output: table.TypeBoolean,
			description: "Determines the is_month_end attribute of a datetime column.",
		}, part: func(t time.Time) table.Value { return table.Bool(t.AddDate(0, 0, 1).Day() == 1) }},
		&datePart{info: info{
			name: "is_month_start", kind: KindTransform, inputs: datetimeInput, output: table.TypeBoolean,
			description: "Determines the is_month_start attribute of a datetime column.",
		}, part: func(t time.Time) table.Value { return table.Bool(t.Day() == 1) }},
		&distanceToHoliday{info: info{
			name: "distance_to_holiday", kind: KindTransform, inputs: datetimeInput, output: table.TypeNumeric,
			description: "Computes the number of days before or after the nearest holiday in the " +
				holidays.Name() + " calendar.",
		}, calendar: holidays},
		&timeSincePrevious{info: info{
			name: "time_since_previous", kind: KindTransform, inputs: datetimeInput, output: table.TypeNumeric,
			description: "Computes the time in seconds since the previous row of the same parent.",
		}},
	}
}

// mapDates applies fn to every non-null cell.
func mapDates(p Primitive, values []table.Value, fn func(time.Time) table.Value) ([]table.Value, error) {
	out := make([]table.Value, len(values))
	for i, v := range values {
		if v.IsNull() {
			continue
		}
		t, ok := v.Timestamp()
		if !ok {
			return nil, mismatch(p, v)
		}
		out[i] = fn(t)
	}
	return out, nil
}

type datePart struct {
	info
	part func(time.Time) table.Value
}

func (d *datePart) Transform(values []table.Value, _ Frame) ([]table.Value, error) {
	return mapDates(d, values, d.part)
}

type distanceToHoliday struct {
	info
	calendar *HolidayCalendar
}

func (d *distanceToHoliday) Transform(values []table.Value, _ Frame) ([]table.Value, error) {
	return mapDates(d, values, func(t time.Time) table.Value {
		days, ok := d.calendar.Distance(t)
		if !ok {
			return table.Null()
		}
		return table.Int(int64(days))
	})
}

type timeSincePrevious struct{ info }

// Transform walks each group in (date, order key) order and emits the
// seconds elapsed since the preceding non-null date. The first row of a
// group, and rows with a null date, yield null.
func (s *timeSincePrevious) Transform(values []table.Value, frame Frame) ([]table.Value, error) {
	out := make([]table.Value, len(values))

	for _, group := range frame.Groups {
		rows := make([]int, 0, len(group))
		for _, r := range group {
			v := values[r]
			if v.IsNull() {
				continue
			}
			if _, ok := v.Timestamp(); !ok {
				return nil, mismatch(s, v)
			}
			rows = append(rows, r)
		}

		sort.SliceStable(rows, func(i, j int) bool {
			ti, _ := values[rows[i]].Timestamp()
			tj, _ := values[rows[j]].Timestamp()
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return orderLess(frame.Order, rows[i], rows[j])
		})

		for i := 1; i < len(rows); i++ {
			prev, _ := values[rows[i-1]].Timestamp()
			cur, _ := values[rows[i]].Timestamp()
			out[rows[i]] = table.Number(cur.Sub(prev).Seconds())
		}
	}
	return out, nil
}

// orderLess compares two rows by their tie-break key, falling back to row
// position when no key is available.
func orderLess(order []table.Value, a, b int) bool {
	if len(order) > a && len(order) > b {
		fa, okA := order[a].Float()
		fb, okB := order[b].Float()
		if okA && okB {
			return fa < fb
		}
		if sa, sb := order[a].String(), order[b].String(); sa != sb {
			return sa < sb
		}
	}
	return a < b
}
