// Package sheets mirrors the ledger into a spreadsheet.
package sheets

import (
	"context"

	"classroom/internal/core"
)

// LedgerExporter overwrites the spreadsheet with the given snapshot.
type LedgerExporter interface {
	ExportLedger(ctx context.Context, snap core.Snapshot) error
}
