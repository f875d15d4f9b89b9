// Package google exports the ledger to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"classroom/internal/core"
	"classroom/internal/log"
	ports "classroom/internal/sheets"
)

var _ ports.LedgerExporter = (*Exporter)(nil)

type Options struct {
	SpreadsheetID string
	LedgerSheet   string
	ExpensesSheet string
}

func (o *Options) defaults() error {
	if o.SpreadsheetID == "" {
		return errors.New("missing spreadsheet id")
	}
	if o.LedgerSheet == "" {
		o.LedgerSheet = "Ledger"
	}
	if o.ExpensesSheet == "" {
		o.ExpensesSheet = "Expenses"
	}
	return nil
}

type Exporter struct {
	svc    *gsheet.Service
	opts   Options
	logger *log.Logger
}

// New builds an exporter authenticated with the service account key in
// credentialsJSON.
func New(ctx context.Context, credentialsJSON []byte, opts Options, logger *log.Logger) (*Exporter, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts, logger)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options, logger *log.Logger) (*Exporter, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{svc: svc, opts: opts, logger: logger.WithComponent(log.ComponentSheets)}, nil
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

// ExportLedger replaces the ledger and expense sheets with snap.
func (e *Exporter) ExportLedger(ctx context.Context, snap core.Snapshot) error {
	if err := e.replace(ctx, e.opts.LedgerSheet, ports.LedgerRows(snap)); err != nil {
		return err
	}
	if err := e.replace(ctx, e.opts.ExpensesSheet, ports.ExpenseRows(snap)); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(snap.Students),
		"spreadsheet", e.opts.SpreadsheetID)
	return nil
}

func (e *Exporter) replace(ctx context.Context, sheet string, rows [][]any) error {
	_, err := e.svc.Spreadsheets.Values.Clear(e.opts.SpreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	_, err = e.svc.Spreadsheets.Values.Update(e.opts.SpreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}
	return nil
}
