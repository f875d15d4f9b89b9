package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func settingsWith(quota string, active ...core.CalendarDate) core.Settings {
	s := core.DefaultSettings()
	s.DailyQuota = dec(quota)
	for _, d := range active {
		s.CollectionDays[d] = true
	}
	return s
}

func student(id string, payments map[core.CalendarDate]string) core.Student {
	s := core.Student{ID: id, Name: id, Gender: core.Male, Payments: map[core.CalendarDate]decimal.Decimal{}}
	for d, a := range payments {
		s.Payments[d] = dec(a)
	}
	return s
}

func TestEffectiveQuota(t *testing.T) {
	s := settingsWith("5", "2024-01-08", "2024-01-09")
	s.CustomQuotas["2024-01-09"] = dec("7.5")
	s.CustomQuotas["2024-01-10"] = dec("9")
	s.CollectionDays["2024-01-11"] = false
	e := New(s, "2024-01-31")

	assert.True(t, e.EffectiveQuota("2024-01-08").Equal(dec("5")))
	assert.True(t, e.EffectiveQuota("2024-01-09").Equal(dec("7.5")))
	// Override on an inactive day does not apply.
	assert.True(t, e.EffectiveQuota("2024-01-10").IsZero())
	// Explicit false and missing are the same.
	assert.True(t, e.EffectiveQuota("2024-01-11").IsZero())
	assert.True(t, e.EffectiveQuota("2024-01-12").IsZero())
	assert.False(t, e.IsCollectionActive("2024-01-11"))
}

func TestToggleAmount(t *testing.T) {
	e := New(settingsWith("5", "2024-01-08"), "2024-01-31")

	next, ok := e.ToggleAmount(decimal.Zero, "2024-01-08")
	require.True(t, ok)
	assert.True(t, next.Equal(dec("5")))

	next, ok = e.ToggleAmount(next, "2024-01-08")
	require.True(t, ok)
	assert.True(t, next.IsZero())

	// Partial and over-payments.
	next, _ = e.ToggleAmount(dec("3"), "2024-01-08")
	assert.True(t, next.Equal(dec("5")))
	next, _ = e.ToggleAmount(dec("8"), "2024-01-08")
	assert.True(t, next.IsZero())

	_, ok = e.ToggleAmount(decimal.Zero, "2024-01-09")
	assert.False(t, ok, "inactive date must not toggle")
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	e := New(settingsWith("5", "2024-01-08"), "2024-01-31")
	for _, start := range []string{"0", "5"} {
		first, ok := e.ToggleAmount(dec(start), "2024-01-08")
		require.True(t, ok)
		second, ok := e.ToggleAmount(first, "2024-01-08")
		require.True(t, ok)
		assert.True(t, second.Equal(dec(start)), "start %s came back as %s", start, second)
	}
}

func TestBulkAmount(t *testing.T) {
	s := settingsWith("5", "2024-01-08")
	s.CustomQuotas["2024-01-08"] = dec("6")
	e := New(s, "2024-01-31")

	amount, ok := e.BulkAmount("2024-01-08", true)
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("6")))

	amount, ok = e.BulkAmount("2024-01-08", false)
	require.True(t, ok)
	assert.True(t, amount.IsZero())

	_, ok = e.BulkAmount("2024-01-09", true)
	assert.False(t, ok)
}

func TestActiveDatesExcludeFuture(t *testing.T) {
	s := settingsWith("5", "2024-01-10", "2024-01-08", "2024-01-09")
	s.CollectionDays["2024-01-07"] = false
	e := New(s, "2024-01-09")

	assert.Equal(t, []core.CalendarDate{"2024-01-08", "2024-01-09"}, e.ActiveDates())
	assert.Equal(t, []core.CalendarDate{"2024-01-08", "2024-01-09", "2024-01-10"}, e.ScheduledDates())
}

func TestDebtNeverNegative(t *testing.T) {
	s := settingsWith("5", "2024-01-08", "2024-01-09")
	e := New(s, "2024-01-31")

	over := student("over", map[core.CalendarDate]string{"2024-01-08": "50"})
	partial := student("partial", map[core.CalendarDate]string{"2024-01-08": "5", "2024-01-09": "2"})
	none := student("none", nil)

	assert.True(t, e.Debt(over).IsZero())
	assert.True(t, e.Debt(partial).Equal(dec("3")))
	assert.True(t, e.Debt(none).Equal(dec("10")))
}

func TestDebtIgnoresFutureAndInactiveDates(t *testing.T) {
	s := settingsWith("5", "2024-01-08", "2024-02-01")
	e := New(s, "2024-01-15")

	st := student("a", map[core.CalendarDate]string{"2024-01-20": "5"})
	// Only 2024-01-08 counts; the payment on an inactive day does not offset it.
	assert.True(t, e.Debt(st).Equal(dec("5")))
}

func TestDebtorsOrdering(t *testing.T) {
	s := settingsWith("5", "2024-01-08", "2024-01-09")
	e := New(s, "2024-01-31")

	students := []core.Student{
		student("paid", map[core.CalendarDate]string{"2024-01-08": "5", "2024-01-09": "5"}),
		student("b", map[core.CalendarDate]string{"2024-01-08": "5"}),
		student("c", nil),
		student("d", map[core.CalendarDate]string{"2024-01-09": "5"}),
	}
	debtors := e.Debtors(students)
	require.Len(t, debtors, 3)
	assert.Equal(t, "c", debtors[0].Student.ID)
	assert.Equal(t, "b", debtors[1].Student.ID)
	assert.Equal(t, "d", debtors[2].Student.ID)
	assert.True(t, debtors[0].Owed.Equal(dec("10")))
	assert.True(t, debtors[0].Paid.IsZero())
}

func TestCollection(t *testing.T) {
	e := New(settingsWith("5", "2024-01-08"), "2024-01-31")
	students := []core.Student{
		student("a", map[core.CalendarDate]string{"2024-01-08": "5"}),
		student("b", map[core.CalendarDate]string{"2024-01-08": "2"}),
		student("c", nil),
	}
	dc := e.Collection(students, "2024-01-08")
	assert.True(t, dc.Active)
	assert.Equal(t, 1, dc.FullyPaid)
	assert.Equal(t, 3, dc.Students)
	assert.True(t, dc.Collected.Equal(dec("7")))
}

func TestGridKeepsUnsetCellsDistinct(t *testing.T) {
	e := New(settingsWith("5", "2024-01-08", "2024-01-09"), "2024-01-08")
	students := []core.Student{
		student("a", map[core.CalendarDate]string{"2024-01-08": "0"}),
		student("b", nil),
	}
	g := e.Grid(students)
	require.Equal(t, []core.CalendarDate{"2024-01-08", "2024-01-09"}, g.Dates)
	require.Len(t, g.Rows, 2)
	require.NotNil(t, g.Rows[0].Cells[0])
	assert.True(t, g.Rows[0].Cells[0].IsZero())
	assert.Nil(t, g.Rows[0].Cells[1])
	assert.Nil(t, g.Rows[1].Cells[0])
	assert.True(t, g.Rows[1].Debt.Equal(dec("5")))
	require.Len(t, g.Columns, 2)
}

func TestEngineUsesLocalToday(t *testing.T) {
	today := core.DateOf(time.Now())
	e := New(settingsWith("1", today), today)
	assert.Equal(t, []core.CalendarDate{today}, e.ActiveDates())
}
