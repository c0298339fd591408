// =============================================================================
// Invoice Ledger - Invoice Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger invoice new [name]
//   ledger invoice list [--search term]
//   ledger invoice rename <invoice> <name>
//   ledger invoice delete <invoice>
//   ledger invoice date <invoice> <YYYY-MM-DD>
//   ledger invoice currency <invoice> <code>
//
// An <invoice> is an invoice id or an exact invoice name.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

// searchTerm filters 'invoice list'.
var searchTerm string

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Manage the invoices of a client",
}

var invoiceNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create an invoice at the top of the list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			inv := st.CreateInvoice(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", inv.ID, inv.Name)
			return nil
		})
	},
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices with their totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDATE\tCURRENCY\tBALANCE")
			for _, inv := range st.Document().Invoices {
				if !ledger.MatchesTerm(inv, searchTerm) {
					continue
				}
				t := ledger.InvoiceTotals(inv)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.Name, inv.Date, inv.Currency, ledger.FormatAmount(t.Balance, inv.Currency))
			}
			return tw.Flush()
		})
	},
}

var invoiceRenameCmd = &cobra.Command{
	Use:   "rename <invoice> <name>",
	Short: "Rename an invoice",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoice(cmd, args[0], func(st *store.Store, inv ledger.Invoice) error {
			return st.RenameInvoice(inv.ID, strings.Join(args[1:], " "))
		})
	},
}

var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete <invoice>",
	Short: "Delete an invoice and both of its tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoice(cmd, args[0], func(st *store.Store, inv ledger.Invoice) error {
			return st.DeleteInvoice(inv.ID)
		})
	},
}

var invoiceDateCmd = &cobra.Command{
	Use:   "date <invoice> <YYYY-MM-DD>",
	Short: "Set the invoice date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := ledger.ParseDate(args[1]); !ok {
			return fmt.Errorf("invalid date %q", args[1])
		}
		return withInvoice(cmd, args[0], func(st *store.Store, inv ledger.Invoice) error {
			return st.SetInvoiceDate(inv.ID, args[1])
		})
	},
}

var invoiceCurrencyCmd = &cobra.Command{
	Use:   "currency <invoice> <code>",
	Short: "Change the currency and reformat every amount",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := currencies().Symbol(args[1])
		return withInvoice(cmd, args[0], func(st *store.Store, inv ledger.Invoice) error {
			return st.SetInvoiceCurrency(inv.ID, symbol)
		})
	},
}

// withInvoice resolves an invoice reference inside withStore.
func withInvoice(cmd *cobra.Command, ref string, fn func(st *store.Store, inv ledger.Invoice) error) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		inv, err := st.ResolveInvoice(ref)
		if err != nil {
			return err
		}
		return fn(st, inv)
	})
}

func init() {
	invoiceListCmd.Flags().StringVar(&searchTerm, "search", "", "Only list invoices whose name, date or currency contains the term")

	invoiceCmd.AddCommand(invoiceNewCmd, invoiceListCmd, invoiceRenameCmd, invoiceDeleteCmd, invoiceDateCmd, invoiceCurrencyCmd)
	rootCmd.AddCommand(invoiceCmd)
}
