package sheets

import (
	"time"

	"classroom/internal/core"
	"classroom/internal/ledger"
)

// LedgerRows renders the payment grid: a header row followed by one row per
// student. Cells with no recorded payment are blank.
func LedgerRows(snap core.Snapshot) [][]any {
	e := ledger.New(snap.Settings, snap.Today)
	grid := e.Grid(snap.Students)

	header := []any{"Name", "Gender"}
	for _, d := range grid.Dates {
		header = append(header, d.String())
	}
	header = append(header, "Debt")

	rows := [][]any{header}
	for _, r := range grid.Rows {
		row := []any{r.Student.Name, string(r.Student.Gender)}
		for _, c := range r.Cells {
			if c == nil {
				row = append(row, "")
				continue
			}
			row = append(row, c.String())
		}
		row = append(row, r.Debt.String())
		rows = append(rows, row)
	}

	totals := []any{"Collected", ""}
	for _, col := range grid.Columns {
		totals = append(totals, col.Collected.String())
	}
	totals = append(totals, "")
	return append(rows, totals)
}

// ExpenseRows renders the expense list with a trailing total.
func ExpenseRows(snap core.Snapshot) [][]any {
	rows := [][]any{{"Date", "Description", "Category", "Amount"}}
	for _, t := range snap.Transactions {
		rows = append(rows, []any{
			t.Date.In(time.Local).Format("2006-01-02"),
			t.Description,
			t.Category,
			t.Amount.String(),
		})
	}
	return append(rows, []any{"", "Total", "", ledger.TotalExpenses(snap.Transactions).String()})
}
