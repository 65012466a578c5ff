// Package dataset reads the loan input file into a flat typed table and
// builds the immutable Snapshot the service works from.
//
// # Sources
//
// The input format is chosen by file extension:
//
//   - .json: {"data":[{"loans":[{...}, ...]}, ...]}, one block per customer
//   - .csv: a header row followed by one loan per line
//   - .xlsx: the first sheet of a workbook, laid out like the CSV
//   - .db, .sqlite: a "loans" table
//
// Every source carries the same seven fields: customer_ID, loan_date,
// amount, fee, loan_status, term and annual_income. Loans keep the order in
// which they appear in the file; that order defines loan_ID.
//
// # Usage
//
//	snap, err := dataset.Open(ctx, "/data/cvas_data.json", "2/1/2006", logger)
//	if err != nil {
//	    return err
//	}
//	es := snap.Entities
package dataset
