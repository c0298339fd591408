package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/printer"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

var printFlags struct {
	scope   string
	invoice string
	tab     string
	from    string
	to      string
	format  string
}

// printCmd writes a receipt and statement PDF, or a text preview.
var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print invoices as PDF or text",
	Long: `Print composes one unit per invoice: the header, the operations and
receipts tables with their totals and, for full invoices, the final account
with signature lines. Each invoice starts on a new page.

Scopes:
  tab      one tab of one invoice (--tab ops|pay|final)
  invoice  one full invoice
  all      every invoice
  range    invoices dated within --from/--to; all of them if none match`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := printer.ParseScope(printFlags.scope)
		if err != nil {
			return err
		}
		tab, ok := ledger.ParseTabKey(printFlags.tab)
		if !ok {
			return fmt.Errorf("invalid tab %q", printFlags.tab)
		}
		if err := app.files.EnsureDirectories(); err != nil {
			return err
		}

		return withStore(cmd.Context(), func(st *store.Store) error {
			doc := st.Document()
			req := printer.Request{Scope: scope, Tab: tab, Range: ledger.NewDateRange(printFlags.from, printFlags.to)}
			client := doc.ClientLabel()
			if client == "" {
				client = app.cfg.Labels.UnknownClient
			}
			name := app.cfg.Labels.ClientFilePrefix + "-" + client

			if scope == printer.ScopeTab || scope == printer.ScopeInvoice {
				inv, err := st.ResolveInvoice(printFlags.invoice)
				if err != nil {
					return err
				}
				req.InvoiceID = inv.ID
				name = inv.Name
			}

			job, err := printer.Compose(doc, req, app.cfg.Labels)
			if err != nil {
				return err
			}
			if job.RangeFellBack {
				fmt.Fprintln(cmd.ErrOrStderr(), app.cfg.Labels.RangeFallback)
			}

			if printFlags.format == "text" {
				return printer.WriteText(cmd.OutOrStdout(), job.Units)
			}

			renderer := printer.NewPDFRenderer(app.cfg.Print, app.logger)
			var buf bytes.Buffer
			pages, err := renderer.Render(&buf, job.Units)
			if err != nil {
				return err
			}

			file := utils.GenerateOutputFileName(app.cfg.Export.FileNameFormat, renderer.Extension(), map[string]string{"name": name}, time.Now())
			path := app.files.OutputPath(file)
			if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
				return fmt.Errorf("failed to write PDF: %w", err)
			}
			app.logger.Info().Str("file", path).Int("pages", pages).Int("invoices", len(job.Units)).Msg("document printed")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

func init() {
	printCmd.Flags().StringVar(&printFlags.scope, "scope", string(printer.ScopeInvoice), "tab, invoice, all or range")
	printCmd.Flags().StringVar(&printFlags.invoice, "invoice", "", "Invoice id or name (default: first invoice)")
	printCmd.Flags().StringVar(&printFlags.tab, "tab", string(ledger.TabOperations), "Tab for --scope tab: ops, pay or final")
	printCmd.Flags().StringVar(&printFlags.from, "from", "", "First invoice date for --scope range")
	printCmd.Flags().StringVar(&printFlags.to, "to", "", "Last invoice date for --scope range")
	printCmd.Flags().StringVar(&printFlags.format, "format", "pdf", "pdf or text")
	rootCmd.AddCommand(printCmd)
}
