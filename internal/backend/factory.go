package backend

import (
	"context"
	"fmt"

	"classroom/internal/amqp"
	"classroom/internal/config"
	"classroom/internal/log"
	"classroom/internal/services"
	"classroom/internal/sheets"
	gsheets "classroom/internal/sheets/google"
	memsheets "classroom/internal/sheets/memory"
	"classroom/internal/store"
	"classroom/internal/vision"
)

// NewAMQPClient connects when AMQP_URL is set. A nil client with a nil
// error means change events are disabled.
func NewAMQPClient(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, change events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// NewImageReader returns the Vision roster reader when enabled, nil
// otherwise.
func NewImageReader(ctx context.Context, cfg *config.Config, logger *log.Logger) (services.RosterImageReader, error) {
	if !cfg.VisionEnabled {
		return nil, nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	client, err := vision.New(ctx, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("init vision client: %w", err)
	}
	return client, nil
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory exporter otherwise.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.LedgerExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("No spreadsheet configured, exports stay in memory")
		return memsheets.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	exp, err := gsheets.New(ctx, creds, gsheets.Options{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		LedgerSheet:   cfg.GoogleLedgerSheet,
		ExpensesSheet: cfg.GoogleExpensesSheet,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init sheets exporter: %w", err)
	}
	return exp, nil
}

// NewLedgerService builds the service over st. publisher may be nil.
func NewLedgerService(st Store, publisher *amqp.Client, images services.RosterImageReader, logger *log.Logger) *services.LedgerService {
	var pub services.ChangePublisher
	if publisher != nil {
		pub = publisher
	}
	return services.NewLedgerService(store.NewStores(st, logger), pub, images, logger)
}
