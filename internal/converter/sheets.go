package converter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/types"
)

// MaxSheetNameLength is the spreadsheet limit on sheet names.
const MaxSheetNameLength = 31

// DefaultSheetName replaces names that sanitize to nothing.
const DefaultSheetName = "Sheet"

// ErrNoInvoices is returned when a scope selects no invoice at all.
var ErrNoInvoices = errors.New("no invoices to export")

// ErrUnknownTab is returned for a tab key that names no sheet.
var ErrUnknownTab = errors.New("unknown tab")

// =============================================================================
// SHEET NAMES
// =============================================================================

// SanitizeSheetName replaces the characters []*/\?: with spaces, trims
// spaces and single quotes from both ends and cuts the result to 31
// characters. Excel rejects names that start or end with a quote.
func SanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '/', '\\', '?', ':':
			return ' '
		}
		return r
	}, name)
	cleaned = truncate(strings.Trim(cleaned, " '"), MaxSheetNameLength)
	cleaned = strings.Trim(cleaned, " '")
	if cleaned == "" {
		return DefaultSheetName
	}
	return cleaned
}

// UniqueSheetNames sanitizes every name and disambiguates repeats with a
// " (n)" suffix that still fits the length limit.
func UniqueSheetNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))

	for i, name := range names {
		base := SanitizeSheetName(name)
		candidate := base
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			candidate = strings.TrimSpace(truncate(base, MaxSheetNameLength-len(suffix))) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// =============================================================================
// SHEET BUILDERS
// =============================================================================

// TableSheet renders a ledger table: headers, data rows and, when
// totalsLabel is set, a totals row with the label in the second-to-last
// column and the formatted sum in the last.
func TableSheet(name string, table ledger.Table, totalsLabel, symbol string) types.Sheet {
	cols := table.ColCount()
	sheet := types.Sheet{Name: name, Rows: make([][]any, 0, len(table.Rows)+2)}

	sheet.Rows = append(sheet.Rows, stringRow(table.Headers))
	for _, row := range table.Rows {
		sheet.Rows = append(sheet.Rows, stringRow(row))
	}

	if totalsLabel != "" && cols > 0 {
		totals := make([]any, cols)
		for i := range totals {
			totals[i] = ""
		}
		if cols >= 2 {
			totals[cols-2] = totalsLabel
		}
		totals[cols-1] = ledger.FormatAmount(ledger.Sum(table), symbol)
		sheet.Rows = append(sheet.Rows, totals)
	}
	return sheet
}

// ReconciliationSheet lists the operations total, the receipts total and the
// balance of one invoice.
func ReconciliationSheet(name string, inv ledger.Invoice, labels config.Labels) types.Sheet {
	totals := ledger.InvoiceTotals(inv)
	return types.Sheet{Name: name, Rows: [][]any{
		{labels.OperationsTotal, ledger.FormatAmount(totals.Operations, inv.Currency)},
		{labels.ReceiptsTotal, ledger.FormatAmount(totals.Receipts, inv.Currency)},
		{labels.Balance, ledger.FormatAmount(totals.Balance, inv.Currency)},
	}}
}

// SummarySheet has one row per invoice with numeric totals.
func SummarySheet(name string, invoices []ledger.Invoice, labels config.Labels) types.Sheet {
	sheet := types.Sheet{Name: name, Rows: [][]any{{
		labels.Invoice, labels.Date, labels.Currency,
		labels.OperationsTotal, labels.ReceiptsTotal, labels.Balance,
	}}}
	for _, inv := range invoices {
		t := ledger.InvoiceTotals(inv)
		sheet.Rows = append(sheet.Rows, []any{inv.Name, inv.Date, inv.Currency, t.Operations, t.Receipts, t.Balance})
	}
	return sheet
}

func stringRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// =============================================================================
// EXPORT SCOPES
// =============================================================================

// Workbook is a named set of sheets ready for a writer.
type Workbook struct {
	// Name is the base of the output file name.
	Name string

	Sheets []types.Sheet

	// Invoices is the number of invoices included.
	Invoices int

	// RangeFellBack is set when a date range matched nothing and every
	// invoice was exported instead.
	RangeFellBack bool
}

// TabTitle returns the label of a tab.
func TabTitle(tab ledger.TabKey, labels config.Labels) (string, error) {
	switch tab {
	case ledger.TabOperations:
		return labels.Operations, nil
	case ledger.TabReceipts:
		return labels.Receipts, nil
	case ledger.TabFinal:
		return labels.Final, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, tab)
}

// tabSheet renders one tab of an invoice under the given sheet name.
func tabSheet(name string, inv ledger.Invoice, tab ledger.TabKey, labels config.Labels) types.Sheet {
	switch tab {
	case ledger.TabOperations:
		return TableSheet(name, inv.Operations, labels.OperationsTotal, inv.Currency)
	case ledger.TabReceipts:
		return TableSheet(name, inv.Receipts, labels.ReceiptsTotal, inv.Currency)
	default:
		return ReconciliationSheet(name, inv, labels)
	}
}

// ExportTab builds a single-sheet workbook for one tab of an invoice.
func ExportTab(inv ledger.Invoice, tab ledger.TabKey, labels config.Labels) (Workbook, error) {
	title, err := TabTitle(tab, labels)
	if err != nil {
		return Workbook{}, err
	}
	return Workbook{
		Name:     inv.Name + "-" + title,
		Sheets:   []types.Sheet{tabSheet(SanitizeSheetName(title), inv, tab, labels)},
		Invoices: 1,
	}, nil
}

// ExportInvoice builds the operations, receipts and final sheets of one
// invoice.
func ExportInvoice(inv ledger.Invoice, labels config.Labels) Workbook {
	tabs := []ledger.TabKey{ledger.TabOperations, ledger.TabReceipts, ledger.TabFinal}
	titles := []string{labels.Operations, labels.Receipts, labels.Final}
	names := UniqueSheetNames(titles)

	wb := Workbook{Name: inv.Name + "-" + labels.FullInvoiceSuffix, Invoices: 1}
	for i, tab := range tabs {
		wb.Sheets = append(wb.Sheets, tabSheet(names[i], inv, tab, labels))
	}
	return wb
}

// ExportClient builds a summary sheet followed by three sheets per invoice.
// A date range that matches nothing falls back to every invoice.
func ExportClient(doc ledger.Document, r ledger.DateRange, labels config.Labels) (Workbook, error) {
	if len(doc.Invoices) == 0 {
		return Workbook{}, ErrNoInvoices
	}
	invoices, fellBack := ledger.FilterInvoices(doc.Invoices, r)

	names := []string{labels.SummarySheet}
	for _, inv := range invoices {
		names = append(names,
			inv.Name+"-"+labels.OperationsSheetSuffix,
			inv.Name+"-"+labels.ReceiptsSheetSuffix,
			inv.Name+"-"+labels.FinalSheetSuffix,
		)
	}
	names = UniqueSheetNames(names)

	client := doc.ClientLabel()
	if client == "" {
		client = labels.UnknownClient
	}

	wb := Workbook{
		Name:          labels.ClientFilePrefix + "-" + client,
		Sheets:        []types.Sheet{SummarySheet(names[0], invoices, labels)},
		Invoices:      len(invoices),
		RangeFellBack: fellBack,
	}
	for i, inv := range invoices {
		base := 1 + i*3
		wb.Sheets = append(wb.Sheets,
			tabSheet(names[base], inv, ledger.TabOperations, labels),
			tabSheet(names[base+1], inv, ledger.TabReceipts, labels),
			tabSheet(names[base+2], inv, ledger.TabFinal, labels),
		)
	}
	return wb, nil
}
