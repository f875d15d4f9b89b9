package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

// Debtor is one student's standing over the active dates.
type Debtor struct {
	Student core.Student    `json:"student"`
	Owed    decimal.Decimal `json:"owed"`
	Paid    decimal.Decimal `json:"paid"`
	Debt    decimal.Decimal `json:"debt"`
}

// DayCollection is the per-date column total shown under the ledger grid.
type DayCollection struct {
	Date      core.CalendarDate `json:"date"`
	Active    bool              `json:"active"`
	Quota     decimal.Decimal   `json:"quota"`
	Collected decimal.Decimal   `json:"collected"`
	FullyPaid int               `json:"fullyPaid"`
	Students  int               `json:"students"`
}

// CategoryTotal is one slice of the expense chart.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary holds every aggregate the dashboard shows.
type Summary struct {
	Today         core.CalendarDate   `json:"today"`
	ActiveDates   []core.CalendarDate `json:"activeDates"`
	Income        decimal.Decimal     `json:"income"`
	Expenses      decimal.Decimal     `json:"expenses"`
	Balance       decimal.Decimal     `json:"balance"`
	Outstanding   decimal.Decimal     `json:"outstanding"`
	WishlistTotal decimal.Decimal     `json:"wishlistTotal"`
	Categories    []CategoryTotal     `json:"categories"`
	Debtors       []Debtor            `json:"debtors"`
}

// Income sums every payment ever recorded, whether or not its date is still
// an active collection day. Debt only looks at active days; income does not.
func Income(students []core.Student) decimal.Decimal {
	total := decimal.Zero
	for _, s := range students {
		for _, amount := range s.Payments {
			total = total.Add(amount)
		}
	}
	return total
}

func TotalExpenses(transactions []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// Balance is income minus expenses. It may go negative.
func Balance(income, expenses decimal.Decimal) decimal.Decimal {
	return income.Sub(expenses)
}

// CategoryBreakdown groups transactions by category in order of first
// appearance. Blank categories fold into core.CategoryOther.
func CategoryBreakdown(transactions []core.Transaction) []CategoryTotal {
	var out []CategoryTotal
	index := map[string]int{}
	for _, t := range transactions {
		cat := strings.TrimSpace(t.Category)
		if cat == "" {
			cat = core.CategoryOther
		}
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, CategoryTotal{Category: cat, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// WishlistTotal is informational and never subtracted from the balance.
func WishlistTotal(planned []core.PlannedExpense) decimal.Decimal {
	total := decimal.Zero
	for _, p := range planned {
		total = total.Add(p.EstimatedCost)
	}
	return total
}

// Summarize computes the dashboard aggregates in one pass.
func (e *Engine) Summarize(students []core.Student, transactions []core.Transaction, planned []core.PlannedExpense) Summary {
	income := Income(students)
	expenses := TotalExpenses(transactions)
	debtors := e.Debtors(students)

	outstanding := decimal.Zero
	for _, d := range debtors {
		outstanding = outstanding.Add(d.Debt)
	}

	return Summary{
		Today:         e.today,
		ActiveDates:   e.ActiveDates(),
		Income:        income,
		Expenses:      expenses,
		Balance:       Balance(income, expenses),
		Outstanding:   outstanding,
		WishlistTotal: WishlistTotal(planned),
		Categories:    CategoryBreakdown(transactions),
		Debtors:       debtors,
	}
}
