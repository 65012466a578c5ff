package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/entityset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// InputDateLayout is the day/month/year layout of loan_date in input files.
const InputDateLayout = "2/1/2006"

// LoanFixture is one flat loan record as it appears in an input file.
type LoanFixture struct {
	CustomerID   string `json:"customer_ID"`
	LoanDate     string `json:"loan_date"`
	Amount       int    `json:"amount"`
	Fee          int    `json:"fee"`
	LoanStatus   int    `json:"loan_status"`
	Term         string `json:"term"`
	AnnualIncome int    `json:"annual_income"`
}

// SampleLoans returns the sample loans in ingestion order:
//
//   - 1090: two loans 455 days apart, 92 and 2 days before New Year's Day
//   - 42: three loans, two on the same date
//   - 296: a single loan 137 days before New Year's Day
//
// Customer 1090 reproduces MEAN(loans.DISTANCE_TO_HOLIDAY(loan_date)) = 47
// and a 455 day gap between its loans. Its MIN distance is 2: two dates 455
// days apart cannot both lie 47 days before New Year's Day.
func SampleLoans() []LoanFixture {
	return []LoanFixture{
		{CustomerID: "1090", LoanDate: "01/10/2016", Amount: 2426, Fee: 199, LoanStatus: 0, Term: "short", AnnualIncome: 41333},
		{CustomerID: "1090", LoanDate: "30/12/2017", Amount: 2426, Fee: 199, LoanStatus: 0, Term: "short", AnnualIncome: 41333},
		{CustomerID: "42", LoanDate: "31/01/2017", Amount: 1000, Fee: 50, LoanStatus: 1, Term: "long", AnnualIncome: 30000},
		{CustomerID: "42", LoanDate: "01/03/2017", Amount: 3000, Fee: 70, LoanStatus: 0, Term: "short", AnnualIncome: 30000},
		{CustomerID: "42", LoanDate: "01/03/2017", Amount: 2000, Fee: 60, LoanStatus: 1, Term: "long", AnnualIncome: 30000},
		{CustomerID: "296", LoanDate: "17/08/2017", Amount: 2003, Fee: 24, LoanStatus: 1, Term: "long", AnnualIncome: 41557},
	}
}

// SampleDepthOneFeatures lists, in order, the feature definitions the
// default primitives produce for the sample loans at max depth 1.
func SampleDepthOneFeatures() []string {
	return []string{
		"annual_income",
		"MAX(loans.amount)",
		"MAX(loans.fee)",
		"MIN(loans.amount)",
		"MIN(loans.fee)",
		"MEAN(loans.amount)",
		"MEAN(loans.fee)",
		"COUNT(loans)",
		"NUM_UNIQUE(loans.loan_status)",
		"NUM_UNIQUE(loans.term)",
		"MODE(loans.loan_status)",
		"MODE(loans.term)",
	}
}

// SampleDefaultFeatures lists, in order, the feature definitions the default
// primitives produce for the sample loans at the default max depth of 2.
func SampleDefaultFeatures() []string {
	return append(SampleDepthOneFeatures(),
		"MAX(loans.DISTANCE_TO_HOLIDAY(loan_date))",
		"MAX(loans.TIME_SINCE_PREVIOUS(loan_date))",
		"MIN(loans.DISTANCE_TO_HOLIDAY(loan_date))",
		"MIN(loans.TIME_SINCE_PREVIOUS(loan_date))",
		"MEAN(loans.DISTANCE_TO_HOLIDAY(loan_date))",
		"MEAN(loans.TIME_SINCE_PREVIOUS(loan_date))",
		"PERCENT_TRUE(loans.IS_MONTH_END(loan_date))",
		"PERCENT_TRUE(loans.IS_MONTH_START(loan_date))",
		"NUM_UNIQUE(loans.YEAR(loan_date))",
		"NUM_UNIQUE(loans.MONTH(loan_date))",
		"NUM_UNIQUE(loans.DAY(loan_date))",
		"NUM_UNIQUE(loans.DAY_OF_YEAR(loan_date))",
		"MODE(loans.YEAR(loan_date))",
		"MODE(loans.MONTH(loan_date))",
		"MODE(loans.DAY(loan_date))",
		"MODE(loans.DAY_OF_YEAR(loan_date))",
	)
}

// RawTable converts loan fixtures to the flat typed table produced by the
// dataset loaders.
func RawTable(tb testing.TB, loans []LoanFixture) *table.Table {
	tb.Helper()

	n := len(loans)
	ids := make([]table.Value, n)
	dates := make([]table.Value, n)
	amounts := make([]table.Value, n)
	fees := make([]table.Value, n)
	statuses := make([]table.Value, n)
	terms := make([]table.Value, n)
	incomes := make([]table.Value, n)

	for i, l := range loans {
		d, err := time.Parse(InputDateLayout, l.LoanDate)
		if err != nil {
			tb.Fatalf("fixture row %d: %v", i, err)
		}
		ids[i] = table.String(l.CustomerID)
		dates[i] = table.Time(d)
		amounts[i] = table.Int(int64(l.Amount))
		fees[i] = table.Int(int64(l.Fee))
		statuses[i] = table.Int(int64(l.LoanStatus))
		terms[i] = table.String(l.Term)
		incomes[i] = table.Int(int64(l.AnnualIncome))
	}

	raw, err := table.New(
		table.Column{Name: entityset.CustomerID, Type: table.TypeForeignKey, Values: ids},
		table.Column{Name: entityset.LoanDate, Type: table.TypeDatetime, Values: dates},
		table.Column{Name: entityset.Amount, Type: table.TypeNumeric, Values: amounts},
		table.Column{Name: entityset.Fee, Type: table.TypeNumeric, Values: fees},
		table.Column{Name: entityset.LoanStatus, Type: table.TypeCategorical, Values: statuses},
		table.Column{Name: entityset.Term, Type: table.TypeCategorical, Values: terms},
		table.Column{Name: entityset.AnnualIncome, Type: table.TypeNumeric, Values: incomes},
	)
	if err != nil {
		tb.Fatalf("fixture table: %v", err)
	}
	return raw
}

// SampleEntitySet builds the entity set of SampleLoans.
func SampleEntitySet(tb testing.TB) *entityset.EntitySet {
	tb.Helper()
	es, err := entityset.Build(RawTable(tb, SampleLoans()))
	if err != nil {
		tb.Fatalf("fixture entity set: %v", err)
	}
	return es
}

// SampleJSON renders SampleLoans in the hierarchical input format, one block
// per customer.
func SampleJSON(tb testing.TB) []byte {
	tb.Helper()

	type block struct {
		Loans []LoanFixture `json:"loans"`
	}
	var blocks []block
	for _, l := range SampleLoans() {
		if len(blocks) > 0 && blocks[len(blocks)-1].Loans[0].CustomerID == l.CustomerID {
			blocks[len(blocks)-1].Loans = append(blocks[len(blocks)-1].Loans, l)
			continue
		}
		blocks = append(blocks, block{Loans: []LoanFixture{l}})
	}

	data, err := json.Marshal(map[string]any{"data": blocks})
	if err != nil {
		tb.Fatalf("fixture json: %v", err)
	}
	return data
}

// WriteSampleJSON writes SampleJSON to a file in dir and returns its path.
func WriteSampleJSON(tb testing.TB, dir string) string {
	tb.Helper()
	path := filepath.Join(dir, "loans.json")
	if err := os.WriteFile(path, SampleJSON(tb), 0o644); err != nil {
		tb.Fatalf("write fixture: %v", err)
	}
	return path
}

// TableStrings renders a table as rows of strings, header first, for use
// with cmp.Diff.
func TableStrings(t *table.Table) [][]string {
	out := [][]string{t.Names()}
	cols := t.Columns()
	for r := 0; r < t.Rows(); r++ {
		row := make([]string, len(cols))
		for c, col := range cols {
			if col.Values[r].IsNull() {
				row[c] = "<null>"
			} else {
				row[c] = col.Values[r].String()
			}
		}
		out = append(out, row)
	}
	return out
}
