package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom/internal/core"
)

func TestIncomeIgnoresActiveFlags(t *testing.T) {
	students := []core.Student{
		student("a", map[core.CalendarDate]string{"2024-01-08": "5", "2023-12-01": "3"}),
		student("b", map[core.CalendarDate]string{"2024-01-08": "5", "2024-01-09": "0"}),
	}
	assert.True(t, Income(students).Equal(dec("13")))
	assert.True(t, Income(nil).IsZero())
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		{Amount: dec("20"), Category: "Materials"},
		{Amount: dec("5"), Category: ""},
		{Amount: dec("3"), Category: "Food"},
		{Amount: dec("1"), Category: "Materials"},
		{Amount: dec("2"), Category: "  "},
	}
	got := CategoryBreakdown(txs)
	require.Len(t, got, 3)
	assert.Equal(t, "Materials", got[0].Category)
	assert.True(t, got[0].Amount.Equal(dec("21")))
	assert.Equal(t, core.CategoryOther, got[1].Category)
	assert.True(t, got[1].Amount.Equal(dec("7")))
	assert.Equal(t, "Food", got[2].Category)
	assert.Empty(t, CategoryBreakdown(nil))
}

func TestBalanceMayBeNegative(t *testing.T) {
	assert.True(t, Balance(dec("10"), dec("25")).Equal(dec("-15")))
}

func TestWishlistTotal(t *testing.T) {
	planned := []core.PlannedExpense{
		{Item: "Broom", EstimatedCost: dec("15")},
		{Item: "Paint", EstimatedCost: dec("22.5")},
	}
	assert.True(t, WishlistTotal(planned).Equal(dec("37.5")))
	assert.True(t, WishlistTotal(nil).IsZero())
}

// Quota 5 on 2024-01-08, two students: toggle one, bulk mark everyone, then
// deactivate the date.
func TestScenarioToggleBulkDeactivate(t *testing.T) {
	const day core.CalendarDate = "2024-01-08"
	settings := settingsWith("5", day)
	a := student("A", nil)
	b := student("B", nil)

	e := New(settings, "2024-01-31")
	next, ok := e.ToggleAmount(decimal.Zero, day)
	require.True(t, ok)
	a.Payments[day] = next
	assert.True(t, a.Payments[day].Equal(dec("5")))

	amount, ok := e.BulkAmount(day, true)
	require.True(t, ok)
	a.Payments[day] = amount
	b.Payments[day] = amount
	students := []core.Student{a, b}
	assert.True(t, e.Debt(a).IsZero())
	assert.True(t, e.Debt(b).IsZero())

	settings.CollectionDays[day] = false
	e = New(settings, "2024-01-31")
	assert.Empty(t, e.ActiveDates())
	assert.Empty(t, e.Debtors(students))
	assert.True(t, Income(students).Equal(dec("10")))
}

func TestSummarize(t *testing.T) {
	e := New(settingsWith("5", "2024-01-08", "2024-01-09"), "2024-01-31")
	students := []core.Student{
		student("a", map[core.CalendarDate]string{"2024-01-08": "5"}),
		student("b", nil),
	}
	txs := []core.Transaction{
		{Amount: dec("20"), Category: "Materials"},
		{Amount: dec("5")},
	}
	planned := []core.PlannedExpense{{Item: "Broom", EstimatedCost: dec("15")}}

	sum := e.Summarize(students, txs, planned)
	assert.True(t, sum.Income.Equal(dec("5")))
	assert.True(t, sum.Expenses.Equal(dec("25")))
	assert.True(t, sum.Balance.Equal(dec("-20")))
	assert.True(t, sum.Outstanding.Equal(dec("15")))
	assert.True(t, sum.WishlistTotal.Equal(dec("15")))
	require.Len(t, sum.Categories, 2)
	assert.Equal(t, map[string]string{"Materials": "20", "Other": "5"}, map[string]string{
		sum.Categories[0].Category: sum.Categories[0].Amount.String(),
		sum.Categories[1].Category: sum.Categories[1].Amount.String(),
	})
	require.Len(t, sum.Debtors, 2)
	assert.Equal(t, "b", sum.Debtors[0].Student.ID)
}
