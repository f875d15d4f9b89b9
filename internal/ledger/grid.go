package ledger

import (
	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

// Grid is the date by student view of the ledger.
type Grid struct {
	Dates   []core.CalendarDate `json:"dates"`
	Rows    []GridRow           `json:"rows"`
	Columns []DayCollection     `json:"columns"`
}

// GridRow holds one student's cells aligned with Grid.Dates. A nil cell
// means no payment was ever recorded, which differs from a stored zero.
type GridRow struct {
	Student core.Student       `json:"student"`
	Cells   []*decimal.Decimal `json:"cells"`
	Debt    decimal.Decimal    `json:"debt"`
}

// Grid lays out every scheduled collection date, future ones included, so
// officers can pre-mark upcoming days.
func (e *Engine) Grid(students []core.Student) Grid {
	dates := e.ScheduledDates()
	g := Grid{Dates: dates}

	accounts := e.Accounts(students)
	for i, s := range students {
		row := GridRow{Student: s, Cells: make([]*decimal.Decimal, len(dates)), Debt: accounts[i].Debt}
		for j, d := range dates {
			if amount, ok := s.Payments[d]; ok {
				amount := amount
				row.Cells[j] = &amount
			}
		}
		g.Rows = append(g.Rows, row)
	}
	for _, d := range dates {
		g.Columns = append(g.Columns, e.Collection(students, d))
	}
	return g
}
