// Package worker mirrors the ledger to the spreadsheet exporter whenever a
// change event arrives, with a periodic full export as a backstop.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"classroom/internal/amqp"
	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/metrics"
	"classroom/internal/sheets"
	"classroom/internal/storage"
)

// SnapshotSource reads the current ledger state.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// ChangeConsumer delivers change events until ctx is done.
type ChangeConsumer interface {
	ConsumeLedgerChanges(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

type ExportWorker struct {
	source   SnapshotSource
	exporter sheets.LedgerExporter
	interval time.Duration
	logger   *log.Logger

	mu sync.Mutex
	// lastSnapshot is when the last successful export read the stores.
	// Events older than that are already reflected in the sheet.
	lastSnapshot time.Time
	now          func() time.Time
}

func NewExportWorker(source SnapshotSource, exporter sheets.LedgerExporter, interval time.Duration, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// exported reports whether a change only touches collections the
// spreadsheet does not show.
func exported(collection string) bool {
	switch collection {
	case storage.KeyAnnouncements, storage.KeyAgenda:
		return false
	default:
		return true
	}
}

// HandleChange exports after a ledger change. Returning an error makes the
// consumer requeue the message.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if !exported(msg.Collection) {
		return nil
	}
	w.mu.Lock()
	stale := !msg.Timestamp.IsZero() && msg.Timestamp.Before(w.lastSnapshot)
	w.mu.Unlock()
	if stale {
		w.logger.DebugContext(ctx, "Change already exported", "collection", msg.Collection)
		return nil
	}
	return w.Export(ctx)
}

// Export writes a fresh snapshot to the spreadsheet.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := w.now()
	snap, err := w.source.Snapshot(ctx)
	if err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := w.exporter.ExportLedger(ctx, snap); err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		w.logger.ErrorContext(ctx, "Export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		return fmt.Errorf("export ledger: %w", err)
	}
	w.lastSnapshot = started
	metrics.Exports.WithLabelValues("ok").Inc()
	return nil
}

// Run exports once, then on every change event and every interval, until
// ctx is cancelled. consumer may be nil for interval-only operation.
func (w *ExportWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	w.logger.InfoContext(ctx, "Export worker started", "interval", w.interval, "events", consumer != nil)
	if err := w.Export(ctx); err != nil {
		w.logger.WarnContext(ctx, "Initial export failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := w.Export(gctx); err != nil {
					w.logger.WarnContext(gctx, "Periodic export failed", log.FieldError, err)
				}
			}
		}
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanges(gctx, w.HandleChange)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	w.logger.InfoContext(ctx, "Export worker stopped", log.FieldOperation, log.OpShutdown)
	return err
}
