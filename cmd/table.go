// =============================================================================
// Invoice Ledger - Table Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger table show                       [--invoice X] [--tab ops|pay]
//   ledger table add-row
//   ledger table del-row   --row N
//   ledger table add-col   [--after N]
//   ledger table del-col   --col N
//   ledger table set       <row> <col> <value>
//   ledger table rename-col <col> <title>
//   ledger table import-csv <file>          [--header] [--delimiter ,]
//   ledger table import-xlsx <file>         [--header] [--sheet NAME]
//
// Rows and columns are numbered from 1, as printed by 'table show'. Column 1
// is the row number column; the last column is the amount.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoice-ledger/internal/csvparser"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/internal/xlsxwriter"
)

// tableFlags select the invoice tab and the cell for table commands.
var tableFlags struct {
	invoice string
	tab     string
	row     int
	col     int
	after   int

	csvHeader    bool
	csvDelimiter string
	xlsxSheet    string
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Edit the operations or receipts table of an invoice",
}

var tableShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the table with its total",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, nil, nil)
	},
}

var tableAddRowCmd = &cobra.Command{
	Use:   "add-row",
	Short: "Append a row",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTable(cmd, nil, ledger.InsertRowCmd{})
	},
}

var tableDelRowCmd = &cobra.Command{
	Use:   "del-row",
	Short: "Delete the row given by --row",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := ledger.SelectCellCmd{Row: tableFlags.row - 1, Col: -1}
		return withTable(cmd, &sel, ledger.DeleteRowCmd{})
	},
}

var tableAddColCmd = &cobra.Command{
	Use:   "add-col",
	Short: "Insert a column before the amount column, or after --after",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableFlags.after > 0 {
			sel := ledger.SelectCellCmd{Row: -1, Col: tableFlags.after - 1}
			return withTable(cmd, &sel, ledger.InsertColumnCmd{AfterSelected: true})
		}
		return withTable(cmd, nil, ledger.InsertColumnCmd{})
	},
}

var tableDelColCmd = &cobra.Command{
	Use:   "del-col",
	Short: "Delete the column given by --col",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := ledger.SelectCellCmd{Row: -1, Col: tableFlags.col - 1}
		return withTable(cmd, &sel, ledger.DeleteColumnCmd{})
	},
}

var tableSetCmd = &cobra.Command{
	Use:   "set <row> <col> <value>",
	Short: "Set a cell; amounts are reformatted in the invoice currency",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, col, err := parseCell(args[0], args[1])
		if err != nil {
			return err
		}
		return withTable(cmd, nil, ledger.SetCellCmd{Row: row, Col: col, Value: strings.Join(args[2:], " ")})
	},
}

var tableRenameColCmd = &cobra.Command{
	Use:   "rename-col <col> <title>",
	Short: "Rename a column header",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid column %q", args[0])
		}
		return withTable(cmd, nil, ledger.RenameColumnCmd{Col: col - 1, Title: strings.Join(args[1:], " ")})
	},
}

var tableImportCSVCmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Append rows read from a CSV file",
	Long: `Import-csv appends one row per CSV record. With --header, CSV columns go
to the table columns with the same title; without it, the last field is the
amount and the other fields fill the columns after the row number in order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := csvparser.ParseFile(args[0], csvparser.Settings{
			Delimiter: tableFlags.csvDelimiter,
			HasHeader: tableFlags.csvHeader,
		})
		if err != nil {
			return err
		}
		return appendRows(cmd, args[0], data)
	},
}

var tableImportXLSXCmd = &cobra.Command{
	Use:   "import-xlsx <file>",
	Short: "Append rows read from a workbook sheet",
	Long: `Import-xlsx appends one row per sheet row of an .xlsx workbook, placing
columns the same way import-csv does. --sheet picks the sheet; the first one
is used by default.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		sheet, err := xlsxwriter.ReadSheet(f, tableFlags.xlsxSheet)
		if err != nil {
			return err
		}
		data, err := csvparser.FromRows(sheet.Text(), tableFlags.csvHeader)
		if err != nil {
			return err
		}
		return appendRows(cmd, args[0], data)
	},
}

// appendRows adds one table row per record through InsertRow and SetCell, so
// amounts are normalized like typed input.
func appendRows(cmd *cobra.Command, source string, data *csvparser.Data) error {
	tab, ok := ledger.ParseTabKey(tableFlags.tab)
	if !ok || tab == ledger.TabFinal {
		return fmt.Errorf("invalid tab %q, want ops or pay", tableFlags.tab)
	}

	return withInvoice(cmd, tableFlags.invoice, func(st *store.Store, inv ledger.Invoice) error {
		current, _ := inv.Table(tab)
		rows, err := csvparser.Layout(data, *current)
		if err != nil {
			return err
		}

		t := *current
		for _, cells := range rows {
			if t, err = st.Apply(inv.ID, tab, ledger.InsertRowCmd{}); err != nil {
				return err
			}
			row := len(t.Rows) - 1
			for _, c := range cells {
				if t, err = st.Apply(inv.ID, tab, ledger.SetCellCmd{Row: row, Col: c.Col, Value: c.Value}); err != nil {
					return err
				}
			}
		}
		app.logger.Info().Str("file", source).Int("rows", len(rows)).Str("invoice", inv.Name).Msg("rows imported")
		return printTable(cmd, t, inv.Currency)
	})
}

func parseCell(rowArg, colArg string) (int, int, error) {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row %q", rowArg)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column %q", colArg)
	}
	return row - 1, col - 1, nil
}

// withTable resolves the invoice tab, optionally selects a cell, applies cmd
// and prints the resulting table.
func withTable(cmd *cobra.Command, sel *ledger.SelectCellCmd, op ledger.Command) error {
	tab, ok := ledger.ParseTabKey(tableFlags.tab)
	if !ok || tab == ledger.TabFinal {
		return fmt.Errorf("invalid tab %q, want ops or pay", tableFlags.tab)
	}

	return withInvoice(cmd, tableFlags.invoice, func(st *store.Store, inv ledger.Invoice) error {
		if sel != nil {
			if _, err := st.Apply(inv.ID, tab, *sel); err != nil {
				return err
			}
		}

		var t ledger.Table
		if op != nil {
			var err error
			if t, err = st.Apply(inv.ID, tab, op); err != nil {
				return err
			}
		} else {
			current, _ := inv.Table(tab)
			t = *current
		}

		return printTable(cmd, t, inv.Currency)
	})
}

func printTable(cmd *cobra.Command, t ledger.Table, symbol string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintf(tw, "%s\t%s\n", strings.Repeat("\t", max(t.ColCount()-2, 0)), ledger.FormatAmount(ledger.Sum(t), symbol))
	return tw.Flush()
}

func init() {
	tableCmd.PersistentFlags().StringVar(&tableFlags.invoice, "invoice", "", "Invoice id or name (default: first invoice)")
	tableCmd.PersistentFlags().StringVar(&tableFlags.tab, "tab", string(ledger.TabOperations), "Table to edit: ops or pay")
	tableDelRowCmd.Flags().IntVar(&tableFlags.row, "row", 0, "Row number to delete")
	tableDelColCmd.Flags().IntVar(&tableFlags.col, "col", 0, "Column number to delete")
	tableAddColCmd.Flags().IntVar(&tableFlags.after, "after", 0, "Insert after this column number")
	tableImportCSVCmd.Flags().BoolVar(&tableFlags.csvHeader, "header", false, "The first record holds column titles")
	tableImportCSVCmd.Flags().StringVar(&tableFlags.csvDelimiter, "delimiter", ",", "Field delimiter: , ; | or tab")
	tableImportXLSXCmd.Flags().BoolVar(&tableFlags.csvHeader, "header", false, "The first row holds column titles")
	tableImportXLSXCmd.Flags().StringVar(&tableFlags.xlsxSheet, "sheet", "", "Sheet name (default: first sheet)")

	tableCmd.AddCommand(tableShowCmd, tableAddRowCmd, tableDelRowCmd, tableAddColCmd, tableDelColCmd, tableSetCmd, tableRenameColCmd, tableImportCSVCmd, tableImportXLSXCmd)
	rootCmd.AddCommand(tableCmd)
}
