// =============================================================================
// Invoice Ledger - Document Model
// =============================================================================
//
// A Document is the persisted unit: every invoice of one client. Invoices own
// two tables, operations (t1) and receipts (t2), which share the invoice
// currency.
//
// =============================================================================

package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the document version tag accepted on load and import.
const SchemaVersion = 2

// DefaultMinCols is the column floor of both invoice tables.
const DefaultMinCols = 6

// DateLayout is the calendar date format stored on invoices.
const DateLayout = "2006-01-02"

const (
	// DefaultInvoiceName names the invoice of a fresh document.
	DefaultInvoiceName = "فاتورة 1"

	// UnnamedInvoice names an invoice that was stored without one.
	UnnamedInvoice = "فاتورة"
)

// DefaultHeaders returns the titles both invoice tables start with.
func DefaultHeaders() []string {
	return []string{OrdinalHeader, "التاريخ", "اسم السائق", "رقم السيارة", "ملاحظة", AmountHeader}
}

// TabKey identifies one view of an invoice.
type TabKey string

const (
	TabOperations TabKey = "ops"
	TabReceipts   TabKey = "pay"
	TabFinal      TabKey = "final"
)

// ParseTabKey validates a tab key.
func ParseTabKey(s string) (TabKey, bool) {
	switch k := TabKey(strings.TrimSpace(s)); k {
	case TabOperations, TabReceipts, TabFinal:
		return k, true
	}
	return "", false
}

// Invoice is one client invoice.
type Invoice struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Currency   string `json:"currency"`
	Operations Table  `json:"t1"`
	Receipts   Table  `json:"t2"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
}

// Document holds every invoice of one client.
type Document struct {
	Version    int       `json:"v"`
	ClientID   string    `json:"clientId,omitempty"`
	ClientName string    `json:"clientName,omitempty"`
	Invoices   []Invoice `json:"invoices"`
}

// DefaultTable returns a fresh table with one row and a zero amount.
func DefaultTable(symbol string) Table {
	t := Normalize(Table{}, DefaultMinCols, DefaultHeaders())
	last := t.ColCount() - 1
	t.Rows[0][last] = FormatAmount(0, symbol)
	return t
}

// NewInvoice creates an invoice dated on the given day with two default tables.
func NewInvoice(name, symbol string, now time.Time) Invoice {
	if strings.TrimSpace(name) == "" {
		name = UnnamedInvoice
	}
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}

	return Invoice{
		ID:         uuid.NewString(),
		Name:       name,
		Date:       now.Format(DateLayout),
		Currency:   symbol,
		Operations: DefaultTable(symbol),
		Receipts:   DefaultTable(symbol),
		CreatedAt:  now.UnixMilli(),
	}
}

// NewDocument creates a document with a single default invoice.
func NewDocument(clientID, clientName string, now time.Time) Document {
	return Document{
		Version:    SchemaVersion,
		ClientID:   clientID,
		ClientName: clientName,
		Invoices:   []Invoice{NewInvoice(DefaultInvoiceName, DefaultCurrencySymbol, now)},
	}
}

// NormalizeInvoice fills missing fields and repairs both tables.
func NormalizeInvoice(inv Invoice, now time.Time) Invoice {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Name == "" {
		inv.Name = UnnamedInvoice
	}
	if inv.Date == "" {
		inv.Date = now.Format(DateLayout)
	}
	if inv.Currency == "" {
		inv.Currency = DefaultCurrencySymbol
	}

	inv.Operations = PinAmountLast(Normalize(inv.Operations, DefaultMinCols, DefaultHeaders()))
	inv.Receipts = PinAmountLast(Normalize(inv.Receipts, DefaultMinCols, DefaultHeaders()))
	return inv
}

// NormalizeDocument repairs every invoice and guarantees at least one.
func NormalizeDocument(doc Document, now time.Time) Document {
	out := Document{
		Version:    SchemaVersion,
		ClientID:   doc.ClientID,
		ClientName: doc.ClientName,
		Invoices:   make([]Invoice, 0, len(doc.Invoices)),
	}
	for _, inv := range doc.Invoices {
		out.Invoices = append(out.Invoices, NormalizeInvoice(inv, now))
	}
	if len(out.Invoices) == 0 {
		out.Invoices = append(out.Invoices, NewInvoice(DefaultInvoiceName, DefaultCurrencySymbol, now))
	}
	return out
}

// Table returns the table behind a tab. The final tab has no table.
func (inv *Invoice) Table(tab TabKey) (*Table, bool) {
	switch tab {
	case TabOperations:
		return &inv.Operations, true
	case TabReceipts:
		return &inv.Receipts, true
	}
	return nil, false
}

// Clone returns a deep copy of the invoice.
func (inv Invoice) Clone() Invoice {
	inv.Operations = inv.Operations.Clone()
	inv.Receipts = inv.Receipts.Clone()
	return inv
}

// Clone returns a deep copy of the document.
func (doc Document) Clone() Document {
	out := doc
	out.Invoices = make([]Invoice, len(doc.Invoices))
	for i, inv := range doc.Invoices {
		out.Invoices[i] = inv.Clone()
	}
	return out
}

// Find returns the index of the invoice with the given id, or -1.
func (doc Document) Find(id string) int {
	for i, inv := range doc.Invoices {
		if inv.ID == id {
			return i
		}
	}
	return -1
}

// ClientLabel is the name shown for the document owner.
func (doc Document) ClientLabel() string {
	if doc.ClientName != "" {
		return doc.ClientName
	}
	return doc.ClientID
}

func normalizeForSearch(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchesTerm reports whether the invoice name, date or currency contains the
// search term. Matching ignores case and runs of whitespace. An empty term
// matches everything.
func MatchesTerm(inv Invoice, term string) bool {
	term = normalizeForSearch(term)
	if term == "" {
		return true
	}
	hay := normalizeForSearch(inv.Name + " " + inv.Date + " " + inv.Currency)
	return strings.Contains(hay, term)
}
