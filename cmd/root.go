// =============================================================================
// Invoice Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ledger)
//   ├── invoice  new | list | rename | delete | date | currency
//   ├── table    add-row | del-row | add-col | del-col | set | rename-col | show
//   ├── sum
//   ├── export   tab | invoice | client
//   ├── print
//   ├── import
//   ├── backup   (list)
//   ├── serve
//   └── version
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --client)
//   2. Loading the YAML configuration
//   3. Setting up logging
//   4. Opening the document store for commands that need one
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/logging"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// clientID and clientName select the document. They override the
// configuration values.
var (
	clientID   string
	clientName string
)

// app holds what PersistentPreRunE prepared for the running command.
var app struct {
	cfg    *config.MainConfig
	logger zerolog.Logger
	files  *utils.FileManager
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Invoice Ledger - client invoices, receipts and balances",
	Long: `Invoice Ledger keeps the invoices of each client as two editable tables,
operations and receipts, and derives the final balance from them.

Key Features:
  - Table editing with a pinned amount column and automatic row numbering
  - Currency-agnostic amount parsing, including Arabic-Indic digits
  - Debounced persistence to files, memory or PostgreSQL
  - Excel export with a SpreadsheetML fallback
  - Printable receipts and statements as PDF

Example Usage:
  ledger invoice new --client c1
  ledger table set 1 5 150 --client c1
  ledger sum --client c1
  ledger export client --from 2024-01-01 --client c1`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}

		app.cfg = cfg
		app.logger = logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
		app.files = utils.NewFileManager(cfg.DataDir, cfg.OutputDir, cfg.BackupDir)

		if clientID == "" {
			clientID = cfg.ClientID
		}
		if clientName == "" {
			clientName = cfg.ClientName
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&clientID, "client", "", "Client id of the document")
	rootCmd.PersistentFlags().StringVar(&clientName, "client-name", "", "Client display name for new documents")
}

// =============================================================================
// STORE WIRING
// =============================================================================

// newAdapter builds the storage adapter named by the configuration. The
// returned func releases it.
func newAdapter(ctx context.Context, cfg *config.MainConfig) (store.Adapter, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		return store.NewMemoryAdapter(), func() {}, nil
	case "postgres":
		a, err := store.NewPostgresAdapter(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	default:
		a, err := store.NewFileAdapter(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return a, func() {}, nil
	}
}

// storeOptions builds the Options shared by the CLI and the server.
func storeOptions(id string) store.Options {
	return store.Options{
		ClientID:   id,
		ClientName: clientName,
		Debounce:   app.cfg.Debounce(),
		Logger:     app.logger,
		Backup: func(data []byte) error {
			path, err := app.files.WriteBackup(backupLabel(id), data, time.Now())
			if err == nil {
				app.logger.Info().Str("file", path).Msg("backup written")
			}
			return err
		},
	}
}

func backupLabel(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}

// withStore opens the selected client's store, runs fn and flushes pending
// edits before returning.
func withStore(ctx context.Context, fn func(st *store.Store) error) error {
	adapter, release, err := newAdapter(ctx, app.cfg)
	if err != nil {
		return err
	}
	defer release()

	st, err := store.Open(ctx, adapter, storeOptions(clientID))
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	runErr := fn(st)
	if err := st.Close(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to save document: %w", err)
	}
	return runErr
}

// currencies returns the configured code to symbol resolver.
func currencies() ledger.Currencies {
	return ledger.NewCurrencies(app.cfg.Currencies, app.cfg.DefaultCurrency)
}
