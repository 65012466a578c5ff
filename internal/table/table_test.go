package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	date := time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		columns []Column
		wantErr string
	}{
		{
			name: "valid table",
			columns: []Column{
				{Name: "customer_ID", Type: TypeIndex, Values: []Value{String("296"), String("1090")}},
				{Name: "annual_income", Type: TypeNumeric, Values: []Value{Int(41557), Null()}},
				{Name: "loan_date", Type: TypeDatetime, Values: []Value{Time(date), Time(date)}},
			},
		},
		{
			name:    "empty name",
			columns: []Column{{Type: TypeNumeric}},
			wantErr: "empty column name",
		},
		{
			name: "duplicate column",
			columns: []Column{
				{Name: "fee", Type: TypeNumeric},
				{Name: "fee", Type: TypeNumeric},
			},
			wantErr: "duplicate column",
		},
		{
			name:    "unknown type",
			columns: []Column{{Name: "fee"}},
			wantErr: "unknown logical type",
		},
		{
			name: "ragged columns",
			columns: []Column{
				{Name: "fee", Type: TypeNumeric, Values: []Value{Int(1)}},
				{Name: "amount", Type: TypeNumeric, Values: []Value{Int(1), Int(2)}},
			},
			wantErr: "has 2 rows, expected 1",
		},
		{
			name: "string in numeric column",
			columns: []Column{
				{Name: "amount", Type: TypeNumeric, Values: []Value{Int(1), String("x")}},
			},
			wantErr: `column "amount" row 1: string value in numeric column`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.columns...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var schemaErr *SchemaError
				assert.ErrorAs(t, err, &schemaErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, tbl.Rows())
			assert.Equal(t, []string{"customer_ID", "annual_income", "loan_date"}, tbl.Names())
		})
	}
}

func TestTableTake(t *testing.T) {
	tbl, err := New(
		Column{Name: "id", Type: TypeIndex, Values: []Value{Int(0), Int(1), Int(2)}},
		Column{Name: "term", Type: TypeCategorical, Values: []Value{String("short"), String("long"), Null()}},
	)
	require.NoError(t, err)

	sub := tbl.Take([]int{2, 0})
	assert.Equal(t, 2, sub.Rows())

	term, ok := sub.Column("term")
	require.True(t, ok)
	assert.True(t, term.Values[0].IsNull())
	assert.Equal(t, "short", term.Values[1].String())

	// receiver is untouched
	orig, _ := tbl.Column("term")
	assert.Equal(t, 3, orig.Len())
	assert.Equal(t, "long", orig.Values[1].String())
}

func TestValue(t *testing.T) {
	t.Run("nan becomes null", func(t *testing.T) {
		assert.True(t, Number(math.NaN()).IsNull())
		assert.True(t, Number(math.Inf(1)).IsNull())
	})

	t.Run("zero time becomes null", func(t *testing.T) {
		assert.True(t, Time(time.Time{}).IsNull())
	})

	t.Run("keys distinguish kinds", func(t *testing.T) {
		assert.NotEqual(t, Int(1).Key(), String("1").Key())
		assert.NotEqual(t, Int(1).Key(), Bool(true).Key())
		assert.Equal(t, Int(2426).Key(), Number(2426).Key())
		assert.True(t, Null().Equal(Null()))
	})

	t.Run("string rendering", func(t *testing.T) {
		assert.Equal(t, "2426", Int(2426).String())
		assert.Equal(t, "0.5", Number(0.5).String())
		assert.Equal(t, "2017-08-17", Time(time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC)).String())
		assert.Equal(t, "", Null().String())
	})

	t.Run("times are normalised to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		v := Time(time.Date(2017, 8, 17, 2, 0, 0, 0, loc))
		ts, ok := v.Timestamp()
		require.True(t, ok)
		assert.Equal(t, time.UTC, ts.Location())
	})
}

func TestLogicalType(t *testing.T) {
	assert.Equal(t, "ordinal", TypeOrdinal.String())
	assert.True(t, TypeOrdinal.IsCategory())
	assert.True(t, TypeCategorical.IsCategory())
	assert.False(t, TypeNumeric.IsCategory())
	assert.True(t, TypeForeignKey.IsKey())
	assert.False(t, TypeDatetime.IsKey())
}
