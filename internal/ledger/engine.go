// Package ledger derives quotas, debts and budget aggregates from a snapshot
// of settings, roster and expenses. Nothing here mutates its inputs or keeps
// state between calls; callers recompute on every read.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

// Engine evaluates one settings record against a fixed "today". Build a new
// Engine per evaluation pass so that every student in the pass sees the same
// boundary date.
type Engine struct {
	settings core.Settings
	today    core.CalendarDate
}

func New(settings core.Settings, today core.CalendarDate) *Engine {
	return &Engine{settings: settings, today: today}
}

func (e *Engine) Today() core.CalendarDate {
	return e.today
}

// IsCollectionActive reports whether payments are collected on date. Missing
// entries and explicit false are the same thing.
func (e *Engine) IsCollectionActive(date core.CalendarDate) bool {
	return e.settings.CollectionDays[date]
}

// EffectiveQuota is the amount owed per student for date: the per-date
// override if one exists, else the daily quota, and zero on inactive days.
func (e *Engine) EffectiveQuota(date core.CalendarDate) decimal.Decimal {
	if !e.IsCollectionActive(date) {
		return decimal.Zero
	}
	if q, ok := e.settings.CustomQuotas[date]; ok {
		return q
	}
	return e.settings.DailyQuota
}

// ToggleAmount returns the amount a tap on the ledger cell should store.
// A cell at or above the quota flips to zero, anything below flips to the
// quota. ok is false on inactive dates and the caller must not write.
func (e *Engine) ToggleAmount(current decimal.Decimal, date core.CalendarDate) (next decimal.Decimal, ok bool) {
	if !e.IsCollectionActive(date) {
		return decimal.Zero, false
	}
	quota := e.EffectiveQuota(date)
	if current.GreaterThanOrEqual(quota) {
		return decimal.Zero, true
	}
	return quota, true
}

// BulkAmount is the amount every student gets when an officer marks a whole
// day paid or unpaid. ok is false on inactive dates.
func (e *Engine) BulkAmount(date core.CalendarDate, paid bool) (amount decimal.Decimal, ok bool) {
	if !e.IsCollectionActive(date) {
		return decimal.Zero, false
	}
	if paid {
		return e.EffectiveQuota(date), true
	}
	return decimal.Zero, true
}

// ActiveDates lists active collection dates up to and including today,
// oldest first. Future dates never accrue debt.
func (e *Engine) ActiveDates() []core.CalendarDate {
	dates := make([]core.CalendarDate, 0, len(e.settings.CollectionDays))
	for d, active := range e.settings.CollectionDays {
		if active && !d.After(e.today) {
			dates = append(dates, d)
		}
	}
	slices.Sort(dates)
	return dates
}

// ScheduledDates lists every active date including future ones, oldest first.
func (e *Engine) ScheduledDates() []core.CalendarDate {
	dates := make([]core.CalendarDate, 0, len(e.settings.CollectionDays))
	for d, active := range e.settings.CollectionDays {
		if active {
			dates = append(dates, d)
		}
	}
	slices.Sort(dates)
	return dates
}

// Debt returns max(0, owed - paid) for one student over ActiveDates.
func (e *Engine) Debt(s core.Student) decimal.Decimal {
	return e.account(s, e.ActiveDates()).Debt
}

func (e *Engine) account(s core.Student, dates []core.CalendarDate) Debtor {
	owed, paid := decimal.Zero, decimal.Zero
	for _, d := range dates {
		owed = owed.Add(e.EffectiveQuota(d))
		if amount, ok := s.Payments[d]; ok {
			paid = paid.Add(amount)
		}
	}
	debt := owed.Sub(paid)
	if debt.IsNegative() {
		debt = decimal.Zero
	}
	return Debtor{Student: s, Owed: owed, Paid: paid, Debt: debt}
}

// Accounts returns owed/paid/debt for every student in roster order.
func (e *Engine) Accounts(students []core.Student) []Debtor {
	dates := e.ActiveDates()
	out := make([]Debtor, 0, len(students))
	for _, s := range students {
		out = append(out, e.account(s, dates))
	}
	return out
}

// Debtors returns students that still owe money, largest debt first. Equal
// debts keep roster order.
func (e *Engine) Debtors(students []core.Student) []Debtor {
	var out []Debtor
	for _, a := range e.Accounts(students) {
		if a.Debt.IsPositive() {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Debtor) int {
		return b.Debt.Cmp(a.Debt)
	})
	return out
}

// Collection summarises one date across the roster.
func (e *Engine) Collection(students []core.Student, date core.CalendarDate) DayCollection {
	dc := DayCollection{
		Date:      date,
		Active:    e.IsCollectionActive(date),
		Quota:     e.EffectiveQuota(date),
		Collected: decimal.Zero,
		Students:  len(students),
	}
	for _, s := range students {
		amount, ok := s.Payments[date]
		if !ok {
			continue
		}
		dc.Collected = dc.Collected.Add(amount)
		if dc.Active && amount.GreaterThanOrEqual(dc.Quota) {
			dc.FullyPaid++
		}
	}
	return dc
}
