package memory

import (
	"context"
	"errors"
	"testing"

	"classroom/internal/core"
)

func TestExporterKeepsLastExport(t *testing.T) {
	e := New()
	snap := core.Snapshot{Today: "2024-01-08", Settings: core.DefaultSettings()}

	if err := e.ExportLedger(context.Background(), snap); err != nil {
		t.Fatalf("export: %v", err)
	}
	ledger, expenses := e.Sheets()
	if len(ledger) != 2 || len(expenses) != 2 {
		t.Fatalf("expected header and totals only, got %d/%d rows", len(ledger), len(expenses))
	}

	e.Fail(errors.New("quota exceeded"))
	if err := e.ExportLedger(context.Background(), snap); err == nil {
		t.Fatal("expected injected error")
	}
	if e.Exports() != 1 {
		t.Fatalf("failed export must not count, got %d", e.Exports())
	}
}
