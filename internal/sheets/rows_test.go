package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"classroom/internal/core"
)

func snapshot() core.Snapshot {
	settings := core.DefaultSettings()
	settings.DailyQuota = decimal.NewFromInt(5)
	settings.CollectionDays["2024-01-08"] = true
	settings.CollectionDays["2024-01-09"] = true
	return core.Snapshot{
		Today:    "2024-01-09",
		Settings: settings,
		Students: []core.Student{
			{ID: "a", Name: "Ana", Gender: core.Female, Payments: map[core.CalendarDate]decimal.Decimal{"2024-01-08": decimal.NewFromInt(5)}},
			{ID: "b", Name: "Budi", Gender: core.Male, Payments: map[core.CalendarDate]decimal.Decimal{}},
		},
		Transactions: []core.Transaction{
			{Amount: decimal.NewFromInt(20), Description: "Paper", Category: "Materials", Date: time.Date(2024, 1, 8, 10, 0, 0, 0, time.Local)},
		},
	}
}

func TestLedgerRows(t *testing.T) {
	rows := LedgerRows(snapshot())
	if len(rows) != 4 {
		t.Fatalf("expected header, two students and totals, got %d rows", len(rows))
	}
	wantHeader := []any{"Name", "Gender", "2024-01-08", "2024-01-09", "Debt"}
	for i, v := range wantHeader {
		if rows[0][i] != v {
			t.Fatalf("header[%d] = %v, want %v", i, rows[0][i], v)
		}
	}
	if rows[1][2] != "5" || rows[1][3] != "" || rows[1][4] != "5" {
		t.Fatalf("unexpected Ana row: %v", rows[1])
	}
	if rows[2][4] != "10" {
		t.Fatalf("unexpected Budi debt: %v", rows[2])
	}
	if rows[3][0] != "Collected" || rows[3][2] != "5" {
		t.Fatalf("unexpected totals row: %v", rows[3])
	}
}

func TestExpenseRows(t *testing.T) {
	rows := ExpenseRows(snapshot())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "2024-01-08" || rows[1][3] != "20" {
		t.Fatalf("unexpected expense row: %v", rows[1])
	}
	if rows[2][1] != "Total" || rows[2][3] != "20" {
		t.Fatalf("unexpected total row: %v", rows[2])
	}
}
