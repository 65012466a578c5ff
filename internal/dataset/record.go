package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// Fields lists the input fields in the column order of the raw table.
var Fields = []string{
	entityset.CustomerID,
	entityset.LoanDate,
	entityset.Amount,
	entityset.Fee,
	entityset.LoanStatus,
	entityset.Term,
	entityset.AnnualIncome,
}

// cell is one raw input value. A cell that is absent or blank is null.
type cell struct {
	text  string
	valid bool
}

func textCell(s string) cell {
	s = strings.TrimSpace(s)
	return cell{text: s, valid: s != ""}
}

// record is one loan as read from a source, before typing.
type record map[string]cell

// builder types records column by column.
type builder struct {
	source     string
	dateLayout string
	columns    map[string][]table.Value
}

func newBuilder(source, dateLayout string, capacity int) *builder {
	b := &builder{
		source:     source,
		dateLayout: dateLayout,
		columns:    make(map[string][]table.Value, len(Fields)),
	}
	for _, f := range Fields {
		b.columns[f] = make([]table.Value, 0, capacity)
	}
	return b
}

func (b *builder) fail(row int, field string, c cell, reason string) error {
	return &ParseError{Source: b.source, Row: row, Field: field, Value: c.text, Reason: reason}
}

// add types one record and appends it. row is the loan position.
func (b *builder) add(row int, rec record) error {
	id := rec[entityset.CustomerID]
	if !id.valid {
		return b.fail(row, entityset.CustomerID, id, "customer id is required")
	}
	b.columns[entityset.CustomerID] = append(b.columns[entityset.CustomerID], table.String(canonicalID(id.text)))

	date, err := b.date(row, rec[entityset.LoanDate])
	if err != nil {
		return err
	}
	b.columns[entityset.LoanDate] = append(b.columns[entityset.LoanDate], date)

	for _, f := range []string{entityset.Amount, entityset.Fee, entityset.AnnualIncome} {
		v, err := b.number(row, f, rec[f])
		if err != nil {
			return err
		}
		b.columns[f] = append(b.columns[f], v)
	}

	status, err := b.status(row, rec[entityset.LoanStatus])
	if err != nil {
		return err
	}
	b.columns[entityset.LoanStatus] = append(b.columns[entityset.LoanStatus], status)

	term, err := b.term(row, rec[entityset.Term])
	if err != nil {
		return err
	}
	b.columns[entityset.Term] = append(b.columns[entityset.Term], term)
	return nil
}

func (b *builder) date(row int, c cell) (table.Value, error) {
	if !c.valid {
		return table.Null(), nil
	}
	t, err := time.Parse(b.dateLayout, c.text)
	if err != nil {
		return table.Null(), b.fail(row, entityset.LoanDate, c, "expected a date in layout "+b.dateLayout)
	}
	return table.Time(t), nil
}

func (b *builder) number(row int, field string, c cell) (table.Value, error) {
	if !c.valid {
		return table.Null(), nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(c.text, ",", ""), 64)
	if err != nil {
		return table.Null(), b.fail(row, field, c, "expected a number")
	}
	return table.Number(f), nil
}

func (b *builder) status(row int, c cell) (table.Value, error) {
	if !c.valid {
		return table.Null(), nil
	}
	f, err := strconv.ParseFloat(c.text, 64)
	if err != nil || (f != 0 && f != 1) {
		return table.Null(), b.fail(row, entityset.LoanStatus, c, "expected 0 or 1")
	}
	return table.Int(int64(f)), nil
}

func (b *builder) term(row int, c cell) (table.Value, error) {
	if !c.valid {
		return table.Null(), nil
	}
	switch t := strings.ToLower(c.text); t {
	case "short", "long":
		return table.String(t), nil
	default:
		return table.Null(), b.fail(row, entityset.Term, c, `expected "short" or "long"`)
	}
}

// canonicalID drops a trailing ".0" so that ids read as floats from
// spreadsheets match ids read as text.
func canonicalID(s string) string {
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(s[:len(s)-2], 10, 64); err == nil {
			return s[:len(s)-2]
		}
	}
	return s
}

func (b *builder) table() (*table.Table, error) {
	types := map[string]table.LogicalType{
		entityset.CustomerID:   table.TypeForeignKey,
		entityset.LoanDate:     table.TypeDatetime,
		entityset.Amount:       table.TypeNumeric,
		entityset.Fee:          table.TypeNumeric,
		entityset.LoanStatus:   table.TypeCategorical,
		entityset.Term:         table.TypeCategorical,
		entityset.AnnualIncome: table.TypeNumeric,
	}
	cols := make([]table.Column, 0, len(Fields))
	for _, f := range Fields {
		cols = append(cols, table.Column{Name: f, Type: types[f], Values: b.columns[f]})
	}
	return table.New(cols...)
}
