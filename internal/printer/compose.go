// =============================================================================
// Invoice Ledger - Print Composition
// =============================================================================
//
// This module turns invoices into printable units. A unit is one invoice on
// its own page(s):
//
//   ┌──────────────────────────────────────────────┐
//   │ وصل قبض + كشف حساب                            │  <- title
//   │ العميل: ... | الفاتورة: ... | التاريخ: ...   │  <- header lines
//   │ العملة: ...                                   │
//   ├──────────────────────────────────────────────┤
//   │ العمليات                                      │  <- one table per tab
//   │ ... rows ...                                  │
//   │ إجمالي العمليات (spans cols-1)   | 200IQD     │  <- footer
//   ├──────────────────────────────────────────────┤
//   │ الحساب النهائي                                │  <- full invoice only
//   │ توقيع المستلم            توقيع المحاسب         │
//   └──────────────────────────────────────────────┘
//
// Renderers (PDF, text) consume units and never compute totals themselves.
//
// =============================================================================

package printer

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
)

// Scope selects which invoices and tabs are printed.
type Scope string

const (
	// ScopeTab prints one tab of one invoice.
	ScopeTab Scope = "tab"
	// ScopeInvoice prints one full invoice.
	ScopeInvoice Scope = "invoice"
	// ScopeAll prints every invoice in full.
	ScopeAll Scope = "all"
	// ScopeRange prints every invoice dated inside a range.
	ScopeRange Scope = "range"
)

var (
	// ErrUnknownScope is returned for a scope outside the four above.
	ErrUnknownScope = errors.New("unknown print scope")

	// ErrInvoiceNotFound is returned when the requested invoice id is absent.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// ParseScope reads a scope name.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeTab, ScopeInvoice, ScopeAll, ScopeRange:
		return sc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

// Request describes a print job.
type Request struct {
	Scope Scope

	// Tab is used by ScopeTab.
	Tab ledger.TabKey

	// InvoiceID is used by ScopeTab and ScopeInvoice. Empty means the first
	// invoice.
	InvoiceID string

	// Range is used by ScopeRange.
	Range ledger.DateRange
}

// =============================================================================
// UNITS
// =============================================================================

// Unit is one printed invoice.
type Unit struct {
	Title  string
	Header []string
	Tables []TableBlock
	Final  *FinalBlock

	// PageBreakAfter forces a new page after this unit.
	PageBreakAfter bool
}

// TableBlock is one printed table with its footer.
type TableBlock struct {
	Title   string
	Headers []string
	Rows    [][]string

	FooterLabel string
	// FooterSpan is the number of columns covered by the footer label.
	FooterSpan  int
	FooterTotal string
}

// FinalBlock is the reconciliation of one invoice.
type FinalBlock struct {
	Title      string
	Lines      []FinalLine
	Signatures []string
}

// FinalLine is one label and formatted amount.
type FinalLine struct {
	Label string
	Value string
}

// Job is the composed output of a Request.
type Job struct {
	Units []Unit

	// RangeFellBack is set when a range matched nothing and every invoice
	// was printed.
	RangeFellBack bool
}

// =============================================================================
// COMPOSITION
// =============================================================================

// Compose builds the printable units for a request.
//
// PARAMETERS:
//   - doc: The client document.
//   - req: The print scope.
//   - labels: User-visible titles.
//
// RETURNS:
//   - The composed job. Every unit but the last has PageBreakAfter set.
//   - ErrUnknownScope, ErrInvoiceNotFound or converter.ErrUnknownTab.
func Compose(doc ledger.Document, req Request, labels config.Labels) (Job, error) {
	var job Job

	switch req.Scope {
	case ScopeTab:
		inv, err := findInvoice(doc, req.InvoiceID)
		if err != nil {
			return Job{}, err
		}
		unit, err := tabUnit(doc, inv, req.Tab, labels)
		if err != nil {
			return Job{}, err
		}
		job.Units = []Unit{unit}

	case ScopeInvoice:
		inv, err := findInvoice(doc, req.InvoiceID)
		if err != nil {
			return Job{}, err
		}
		job.Units = []Unit{invoiceUnit(doc, inv, labels)}

	case ScopeAll, ScopeRange:
		invoices := doc.Invoices
		if req.Scope == ScopeRange {
			invoices, job.RangeFellBack = ledger.FilterInvoices(doc.Invoices, req.Range)
		}
		for _, inv := range invoices {
			job.Units = append(job.Units, invoiceUnit(doc, inv, labels))
		}

	default:
		return Job{}, fmt.Errorf("%w: %q", ErrUnknownScope, req.Scope)
	}

	for i := range job.Units {
		job.Units[i].PageBreakAfter = i < len(job.Units)-1
	}
	return job, nil
}

func findInvoice(doc ledger.Document, id string) (ledger.Invoice, error) {
	if id == "" {
		if len(doc.Invoices) == 0 {
			return ledger.Invoice{}, ErrInvoiceNotFound
		}
		return doc.Invoices[0], nil
	}
	i := doc.Find(id)
	if i < 0 {
		return ledger.Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	return doc.Invoices[i], nil
}

// header returns the header lines of a unit.
func header(doc ledger.Document, inv ledger.Invoice, extra string, labels config.Labels) []string {
	client := "—"
	if name := doc.ClientLabel(); name != "" {
		client = labels.Client + ": " + name
	}

	lines := []string{client, labels.Invoice + ": " + inv.Name}
	if inv.Date != "" {
		lines = append(lines, labels.Date+": "+inv.Date)
	}
	if extra != "" {
		lines = append(lines, extra)
	}
	return append(lines, labels.Currency+": "+currency(inv))
}

func currency(inv ledger.Invoice) string {
	if inv.Currency == "" {
		return ledger.DefaultCurrencySymbol
	}
	return inv.Currency
}

// tableBlock renders one table with the amount column pinned last.
func tableBlock(title string, t ledger.Table, footerLabel, symbol string) TableBlock {
	pinned := ledger.PinAmountLast(t)
	span := pinned.ColCount() - 1
	if span < 1 {
		span = 1
	}
	return TableBlock{
		Title:       title,
		Headers:     pinned.Headers,
		Rows:        pinned.Rows,
		FooterLabel: footerLabel,
		FooterSpan:  span,
		FooterTotal: ledger.FormatAmount(ledger.Sum(pinned), symbol),
	}
}

func finalBlock(inv ledger.Invoice, labels config.Labels) *FinalBlock {
	totals := ledger.InvoiceTotals(inv)
	sym := currency(inv)
	return &FinalBlock{
		Title: labels.Final,
		Lines: []FinalLine{
			{labels.OperationsTotal, ledger.FormatAmount(totals.Operations, sym)},
			{labels.ReceiptsTotal, ledger.FormatAmount(totals.Receipts, sym)},
			{labels.Balance, ledger.FormatAmount(totals.Balance, sym)},
		},
		Signatures: []string{labels.SignatureRecipient, labels.SignatureAccountant},
	}
}

func invoiceUnit(doc ledger.Document, inv ledger.Invoice, labels config.Labels) Unit {
	sym := currency(inv)
	return Unit{
		Title:  labels.DocumentTitle,
		Header: header(doc, inv, "", labels),
		Tables: []TableBlock{
			tableBlock(labels.Operations, inv.Operations, labels.OperationsTotal, sym),
			tableBlock(labels.Receipts, inv.Receipts, labels.ReceiptsTotal, sym),
		},
		Final: finalBlock(inv, labels),
	}
}

func tabUnit(doc ledger.Document, inv ledger.Invoice, tab ledger.TabKey, labels config.Labels) (Unit, error) {
	title, err := converter.TabTitle(tab, labels)
	if err != nil {
		return Unit{}, err
	}

	sym := currency(inv)
	unit := Unit{
		Title:  labels.DocumentTitle,
		Header: header(doc, inv, labels.Tab+": "+title, labels),
	}
	switch tab {
	case ledger.TabOperations:
		unit.Tables = []TableBlock{tableBlock(title, inv.Operations, labels.OperationsTotal, sym)}
	case ledger.TabReceipts:
		unit.Tables = []TableBlock{tableBlock(title, inv.Receipts, labels.ReceiptsTotal, sym)}
	default:
		unit.Final = finalBlock(inv, labels)
	}
	return unit, nil
}
