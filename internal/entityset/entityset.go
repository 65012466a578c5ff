package entityset

import (
	"fmt"
	"sort"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/table"
)

// Entity and column names of the loan dataset.
const (
	Customers = "customers"
	Loans     = "loans"

	CustomerID   = "customer_ID"
	AnnualIncome = "annual_income"
	LoanID       = "loan_ID"
	LoanDate     = "loan_date"
	Amount       = "amount"
	Fee          = "fee"
	LoanStatus   = "loan_status"
	Term         = "term"
)

// customerOnly lists raw columns that describe the customer rather than the
// loan. They move to the Customer projection during Build.
var customerOnly = map[string]bool{
	AnnualIncome: true,
}

// Relationship is the one-to-many edge between customers and loans.
type Relationship struct {
	Parent    string `json:"parent"`
	ParentKey string `json:"parent_key"`
	Child     string `json:"child"`
	ChildKey  string `json:"child_key"`
	TimeIndex string `json:"time_index,omitempty"`
}

// EntitySet holds the Customer and Loan projections and the row mapping
// between them. It is immutable after construction.
type EntitySet struct {
	customers *table.Table
	loans     *table.Table
	rel       Relationship

	// children[i] lists loan rows of customer row i in ingestion order.
	children    [][]int
	customerIDs []string

	incomeConflicts []string
}

// Build partitions a flat loan table into customers and loans. Customers are
// deduplicated by customer_ID in order of first appearance; when
// annual_income differs between a customer's rows, the first occurrence wins
// and the customer is reported by IncomeConflicts. Every raw row becomes a
// loan with loan_ID equal to its position.
func Build(raw *table.Table) (*EntitySet, error) {
	idCol, ok := raw.Column(CustomerID)
	if !ok {
		return nil, fmt.Errorf("entityset: raw table has no %s column", CustomerID)
	}

	var (
		firstRow  []int
		seen      = make(map[table.Key]int, raw.Rows())
		conflicts []string
	)
	income, hasIncome := raw.Column(AnnualIncome)

	for row, id := range idCol.Values {
		if id.IsNull() {
			return nil, newIntegrityError(Loans, row, "", "loan has no %s", CustomerID)
		}
		first, dup := seen[id.Key()]
		if !dup {
			seen[id.Key()] = row
			firstRow = append(firstRow, row)
			continue
		}
		if hasIncome && !income.Values[row].Equal(income.Values[first]) {
			conflicts = appendOnce(conflicts, id.String())
		}
	}

	customerCols := []table.Column{{
		Name:   CustomerID,
		Type:   table.TypeIndex,
		Values: take(idCol.Values, firstRow),
	}}
	loanIDs := make([]table.Value, raw.Rows())
	for i := range loanIDs {
		loanIDs[i] = table.Int(int64(i))
	}
	loanCols := []table.Column{
		{Name: LoanID, Type: table.TypeIndex, Values: loanIDs},
		{Name: CustomerID, Type: table.TypeForeignKey, Values: idCol.Values},
	}

	for _, col := range raw.Columns() {
		switch {
		case col.Name == CustomerID:
			continue
		case customerOnly[col.Name]:
			customerCols = append(customerCols, table.Column{
				Name:   col.Name,
				Type:   col.Type,
				Values: take(col.Values, firstRow),
			})
		default:
			loanCols = append(loanCols, col)
		}
	}

	customers, err := table.New(customerCols...)
	if err != nil {
		return nil, fmt.Errorf("entityset: customers: %w", err)
	}
	loans, err := table.New(loanCols...)
	if err != nil {
		return nil, fmt.Errorf("entityset: loans: %w", err)
	}

	es, err := New(customers, loans)
	if err != nil {
		return nil, err
	}
	es.incomeConflicts = conflicts
	return es, nil
}

// New assembles an EntitySet from explicit projections. customers must have
// a customer_ID index column; loans must have a loan_ID index column and a
// customer_ID foreign key column, with rows in ingestion order. Duplicate
// keys and loans referencing an unknown customer fail with IntegrityError.
func New(customers, loans *table.Table) (*EntitySet, error) {
	if err := requireType(customers, Customers, CustomerID, table.TypeIndex); err != nil {
		return nil, err
	}
	if err := requireType(loans, Loans, LoanID, table.TypeIndex); err != nil {
		return nil, err
	}
	if err := requireType(loans, Loans, CustomerID, table.TypeForeignKey); err != nil {
		return nil, err
	}

	ids, _ := customers.Column(CustomerID)
	parent := make(map[table.Key]int, customers.Rows())
	customerIDs := make([]string, customers.Rows())
	for row, id := range ids.Values {
		if id.IsNull() {
			return nil, newIntegrityError(Customers, row, "", "null %s", CustomerID)
		}
		if _, dup := parent[id.Key()]; dup {
			return nil, newIntegrityError(Customers, row, id.String(), "duplicate %s", CustomerID)
		}
		parent[id.Key()] = row
		customerIDs[row] = id.String()
	}

	loanIDs, _ := loans.Column(LoanID)
	seenLoans := make(map[table.Key]struct{}, loans.Rows())
	for row, id := range loanIDs.Values {
		if id.IsNull() {
			return nil, newIntegrityError(Loans, row, "", "null %s", LoanID)
		}
		if _, dup := seenLoans[id.Key()]; dup {
			return nil, newIntegrityError(Loans, row, id.String(), "duplicate %s", LoanID)
		}
		seenLoans[id.Key()] = struct{}{}
	}

	fks, _ := loans.Column(CustomerID)
	children := make([][]int, customers.Rows())
	for row, fk := range fks.Values {
		p, ok := parent[fk.Key()]
		if !ok {
			return nil, newIntegrityError(Loans, row, fk.String(), "orphan loan: no customer with this %s", CustomerID)
		}
		children[p] = append(children[p], row)
	}

	rel := Relationship{
		Parent:    Customers,
		ParentKey: CustomerID,
		Child:     Loans,
		ChildKey:  CustomerID,
	}
	if col, ok := loans.Column(LoanDate); ok && col.Type == table.TypeDatetime {
		rel.TimeIndex = LoanDate
	}

	return &EntitySet{
		customers:   customers,
		loans:       loans,
		rel:         rel,
		children:    children,
		customerIDs: customerIDs,
	}, nil
}

// Customers returns the Customer projection
func (es *EntitySet) Customers() *table.Table { return es.customers }

// Loans returns the Loan projection
func (es *EntitySet) Loans() *table.Table { return es.loans }

// Relationship returns the customer to loan edge
func (es *EntitySet) Relationship() Relationship { return es.rel }

// NumCustomers returns the number of customer rows
func (es *EntitySet) NumCustomers() int { return es.customers.Rows() }

// NumLoans returns the number of loan rows
func (es *EntitySet) NumLoans() int { return es.loans.Rows() }

// CustomerIDs returns the customer ids in customer row order.
func (es *EntitySet) CustomerIDs() []string {
	out := make([]string, len(es.customerIDs))
	copy(out, es.customerIDs)
	return out
}

// Children returns the loan rows of a customer row in ingestion order. The
// returned slice must not be modified.
func (es *EntitySet) Children(customerRow int) []int {
	return es.children[customerRow]
}

// Groups returns the loan rows of every customer, indexed by customer row.
// The returned slices must not be modified.
func (es *EntitySet) Groups() [][]int {
	return es.children
}

// CustomerColumns returns the customer columns usable as base features.
func (es *EntitySet) CustomerColumns() []table.Column {
	return nonKey(es.customers)
}

// LoanColumns returns the loan columns usable as primitive inputs.
func (es *EntitySet) LoanColumns() []table.Column {
	return nonKey(es.loans)
}

// LoanIndex returns the loan_ID column.
func (es *EntitySet) LoanIndex() table.Column {
	col, _ := es.loans.Column(LoanID)
	return col
}

// IncomeConflicts lists customers whose annual_income differed between
// loans in the raw table.
func (es *EntitySet) IncomeConflicts() []string {
	return es.incomeConflicts
}

// Subset returns the entity set restricted to the customers whose id is in
// ids. Customer order and loan ingestion order are preserved; ids that match
// no customer are ignored.
func (es *EntitySet) Subset(ids []string) *EntitySet {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var customerRows, loanRows []int
	for row, id := range es.customerIDs {
		if _, ok := want[id]; ok {
			customerRows = append(customerRows, row)
			loanRows = append(loanRows, es.children[row]...)
		}
	}
	sort.Ints(loanRows)

	position := make(map[int]int, len(loanRows))
	for i, r := range loanRows {
		position[r] = i
	}
	children := make([][]int, len(customerRows))
	customerIDs := make([]string, len(customerRows))
	for i, row := range customerRows {
		customerIDs[i] = es.customerIDs[row]
		kids := make([]int, len(es.children[row]))
		for j, r := range es.children[row] {
			kids[j] = position[r]
		}
		children[i] = kids
	}

	return &EntitySet{
		customers:   es.customers.Take(customerRows),
		loans:       es.loans.Take(loanRows),
		rel:         es.rel,
		children:    children,
		customerIDs: customerIDs,
	}
}

func requireType(t *table.Table, entity, name string, want table.LogicalType) error {
	col, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("entityset: %s has no %s column", entity, name)
	}
	if col.Type != want {
		return fmt.Errorf("entityset: %s.%s must be %s, got %s", entity, name, want, col.Type)
	}
	return nil
}

func nonKey(t *table.Table) []table.Column {
	var out []table.Column
	for _, col := range t.Columns() {
		if !col.Type.IsKey() {
			out = append(out, col)
		}
	}
	return out
}

func take(values []table.Value, rows []int) []table.Value {
	out := make([]table.Value, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
