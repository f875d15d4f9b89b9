package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"classroom/internal/backend"
	apphttp "classroom/internal/http"
	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/services"
	"classroom/internal/worker"
)

// NewRootCommand creates the classroom command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "classroom",
		Short: "Class funds ledger: daily dues, expenses and the class board",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			LoadEnvFile()
		},
	}

	rootCmd.AddCommand(newServeCommand(), newWorkerCommand(), newRosterCommand(), newSummaryCommand())
	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg.LogLevel)

	st, err := backend.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	publisher, err := backend.NewAMQPClient(cfg, logger)
	if err != nil {
		logger.Error("AMQP unavailable, continuing without change events", log.FieldError, err)
		publisher = nil
	}
	images, err := backend.NewImageReader(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	svc := backend.NewLedgerService(st, publisher, images, logger)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		OfficerToken:       cfg.OfficerToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Store:              st,
		Logger:             logger,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	if cfg.OfficerToken == "" {
		logger.Warn("OFFICER_TOKEN is empty, the API is read-only")
	}

	ctx, done := GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting classroom server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on port %s: %w", cfg.Port, err)
	}
	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
	return nil
}

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror the ledger to the spreadsheet on change events and on a timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker()
		},
	}
}

func runWorker() error {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg.LogLevel)

	st, err := backend.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := backend.NewAMQPClient(cfg, logger)
	if err != nil {
		return err
	}
	var consumer worker.ChangeConsumer
	if client != nil {
		defer client.Close()
		consumer = client
	}

	ctx, done := GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	exporter, err := backend.NewExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := backend.NewLedgerService(st, nil, nil, logger)
	w := worker.NewExportWorker(svc, exporter, cfg.ExportInterval, logger)

	logger.Info("Starting export worker", "interval", cfg.ExportInterval, log.FieldOperation, log.OpStartup)
	if err := w.Run(ctx, consumer); err != nil {
		return fmt.Errorf("export worker: %w", err)
	}
	<-done
	return nil
}

func newRosterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the class roster",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Append students from a text file, one per line, optional F/M prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading roster file: %w", err)
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *services.LedgerService) error {
				n, err := svc.ImportRoster(ctx, string(text))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students\n", n)
				return nil
			})
		},
	})
	return cmd
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print balance, outstanding dues and debtors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *services.LedgerService) error {
				ov, err := svc.Overview(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				sym := ov.Settings.CurrencySymbol
				fmt.Fprintf(out, "Today:       %s\n", ov.Summary.Today)
				fmt.Fprintf(out, "Students:    %d\n", len(ov.Grid.Rows))
				fmt.Fprintf(out, "Income:      %s\n", core.FormatAmount(sym, ov.Summary.Income))
				fmt.Fprintf(out, "Expenses:    %s\n", core.FormatAmount(sym, ov.Summary.Expenses))
				fmt.Fprintf(out, "Balance:     %s\n", core.FormatAmount(sym, ov.Summary.Balance))
				fmt.Fprintf(out, "Outstanding: %s\n", core.FormatAmount(sym, ov.Summary.Outstanding))
				for _, d := range ov.Summary.Debtors {
					fmt.Fprintf(out, "  %-24s %s\n", d.Student.Name, core.FormatAmount(sym, d.Debt))
				}
				return nil
			})
		},
	}
}

// withService opens the configured store for a one-shot command.
func withService(ctx context.Context, fn func(context.Context, *services.LedgerService) error) error {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg.LogLevel)
	st, err := backend.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, backend.NewLedgerService(st, nil, nil, logger))
}
