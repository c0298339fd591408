package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/printer"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/internal/web"
)

var serveAddr string

// serveCmd serves exports, prints and balances over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve workbooks, PDFs and balances over HTTP",
	Long: `Serve starts the HTTP download surface:

  GET /documents/{client}                  JSON backup
  GET /documents/{client}/balance?invoice= totals of one invoice
  GET /documents/{client}/export?scope=client|invoice|tab&invoice=&tab=&from=&to=
  GET /documents/{client}/print?scope=tab|invoice|all|range&invoice=&tab=&from=&to=&format=pdf|text

Documents changed by other processes are reloaded every watch_interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adapter, release, err := newAdapter(ctx, app.cfg)
		if err != nil {
			return err
		}
		defer release()

		opts := storeOptions("")
		opts.ClientName = ""
		registry := store.NewRegistry(adapter, opts)
		registry.WatchInterval = app.cfg.Watch()

		server := web.NewServer(registry,
			converter.New(app.cfg, app.logger),
			printer.NewPDFRenderer(app.cfg.Print, app.logger),
			app.cfg.Labels,
			app.logger,
		)

		addr := serveAddr
		if addr == "" {
			addr = app.cfg.Server.Addr
		}

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(addr) }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			app.logger.Info().Msg("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error().Err(err).Msg("server shutdown failed")
		}
		return registry.Close(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}
