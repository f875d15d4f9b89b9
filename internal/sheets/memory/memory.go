// Package memory keeps exported sheets in process. It backs the worker when
// no spreadsheet is configured and doubles as a test fake.
package memory

import (
	"context"
	"sync"

	"classroom/internal/core"
	"classroom/internal/sheets"
)

var _ sheets.LedgerExporter = (*Exporter)(nil)

type Exporter struct {
	mu       sync.Mutex
	ledger   [][]any
	expenses [][]any
	exports  int
	err      error
}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportLedger(_ context.Context, snap core.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.ledger = sheets.LedgerRows(snap)
	e.expenses = sheets.ExpenseRows(snap)
	e.exports++
	return nil
}

// Fail makes later exports return err until called with nil.
func (e *Exporter) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Sheets returns the last exported ledger and expense rows.
func (e *Exporter) Sheets() (ledger, expenses [][]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger, e.expenses
}

func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
