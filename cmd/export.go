// =============================================================================
// Invoice Ledger - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes Excel workbooks to
// the output directory.
//
// COMMAND USAGE:
//   ledger export tab     [--invoice X] [--tab ops|pay|final]
//   ledger export invoice [--invoice X]
//   ledger export client  [--from YYYY-MM-DD] [--to YYYY-MM-DD]
//
// PIPELINE:
//   1. Load configuration and open the client document
//   2. Build the sheets for the scope
//   3. Write with the native .xlsx writer, or the SpreadsheetML fallback
//      when export.native is false
//   4. Report the written file
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

var exportFlags struct {
	invoice string
	tab     string
	from    string
	to      string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write Excel workbooks",
}

var exportTabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Export one tab of an invoice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, ok := ledger.ParseTabKey(exportFlags.tab)
		if !ok {
			return fmt.Errorf("%w: %q", converter.ErrUnknownTab, exportFlags.tab)
		}
		return runExport(cmd, func(st *store.Store) (converter.Workbook, error) {
			inv, err := st.ResolveInvoice(exportFlags.invoice)
			if err != nil {
				return converter.Workbook{}, err
			}
			return converter.ExportTab(inv, tab, app.cfg.Labels)
		})
	},
}

var exportInvoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Export operations, receipts and the final account of an invoice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, func(st *store.Store) (converter.Workbook, error) {
			inv, err := st.ResolveInvoice(exportFlags.invoice)
			if err != nil {
				return converter.Workbook{}, err
			}
			return converter.ExportInvoice(inv, app.cfg.Labels), nil
		})
	},
}

var exportClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Export a summary and every invoice of the client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, func(st *store.Store) (converter.Workbook, error) {
			return converter.ExportClient(st.Document(), ledger.NewDateRange(exportFlags.from, exportFlags.to), app.cfg.Labels)
		})
	},
}

// runExport builds a workbook from the open store and writes it.
func runExport(cmd *cobra.Command, build func(st *store.Store) (converter.Workbook, error)) error {
	if err := app.files.EnsureDirectories(); err != nil {
		return err
	}
	exporter := converter.New(app.cfg, app.logger)

	return withStore(cmd.Context(), func(st *store.Store) error {
		wb, err := build(st)
		if err != nil {
			return err
		}
		if wb.RangeFellBack {
			fmt.Fprintln(cmd.ErrOrStderr(), app.cfg.Labels.RangeFallback)
		}

		res, err := exporter.WriteFile(wb)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d sheets)\n", res.OutputFile, res.Backend, res.Sheets)
		return nil
	})
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportFlags.invoice, "invoice", "", "Invoice id or name (default: first invoice)")
	exportTabCmd.Flags().StringVar(&exportFlags.tab, "tab", string(ledger.TabOperations), "Tab to export: ops, pay or final")
	exportClientCmd.Flags().StringVar(&exportFlags.from, "from", "", "First invoice date to include")
	exportClientCmd.Flags().StringVar(&exportFlags.to, "to", "", "Last invoice date to include")

	exportCmd.AddCommand(exportTabCmd, exportInvoiceCmd, exportClientCmd)
	rootCmd.AddCommand(exportCmd)
}
