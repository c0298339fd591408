package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

var sumFlags struct {
	invoice string
	all     bool
	json    bool
}

type sumLine struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Totals ledger.Totals `json:"totals"`
}

// sumCmd prints the operations total, receipts total and balance.
var sumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Show the totals and final balance of an invoice",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			var invoices []ledger.Invoice
			if sumFlags.all {
				invoices = st.Document().Invoices
			} else {
				inv, err := st.ResolveInvoice(sumFlags.invoice)
				if err != nil {
					return err
				}
				invoices = []ledger.Invoice{inv}
			}

			lines := make([]sumLine, 0, len(invoices))
			for _, inv := range invoices {
				lines = append(lines, sumLine{ID: inv.ID, Name: inv.Name, Totals: ledger.InvoiceTotals(inv)})
			}

			if sumFlags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(lines)
			}

			labels := app.cfg.Labels
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i, inv := range invoices {
				t := lines[i].Totals
				fmt.Fprintf(tw, "%s\t%s\n", labels.Invoice, inv.Name)
				fmt.Fprintf(tw, "%s\t%s\n", labels.OperationsTotal, ledger.FormatAmount(t.Operations, inv.Currency))
				fmt.Fprintf(tw, "%s\t%s\n", labels.ReceiptsTotal, ledger.FormatAmount(t.Receipts, inv.Currency))
				fmt.Fprintf(tw, "%s\t%s\n\n", labels.Balance, ledger.FormatAmount(t.Balance, inv.Currency))
			}
			return tw.Flush()
		})
	},
}

func init() {
	sumCmd.Flags().StringVar(&sumFlags.invoice, "invoice", "", "Invoice id or name (default: first invoice)")
	sumCmd.Flags().BoolVar(&sumFlags.all, "all", false, "Show every invoice")
	sumCmd.Flags().BoolVar(&sumFlags.json, "json", false, "Print JSON")
	rootCmd.AddCommand(sumCmd)
}
