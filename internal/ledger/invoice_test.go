package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("c-1", "أحمد", fixedNow)

	if doc.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", doc.Version, SchemaVersion)
	}
	if len(doc.Invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(doc.Invoices))
	}

	inv := doc.Invoices[0]
	if inv.Name != DefaultInvoiceName || inv.Date != "2024-03-09" || inv.Currency != "$" {
		t.Errorf("invoice = %q %q %q", inv.Name, inv.Date, inv.Currency)
	}
	if inv.ID == "" {
		t.Error("invoice has no id")
	}

	wantRows := [][]string{{"1", "", "", "", "", "0$"}}
	for _, tbl := range []Table{inv.Operations, inv.Receipts} {
		if diff := cmp.Diff(DefaultHeaders(), tbl.Headers); diff != "" {
			t.Errorf("headers mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(wantRows, tbl.Rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
		if tbl.MinCols != DefaultMinCols {
			t.Errorf("MinCols = %d", tbl.MinCols)
		}
	}
}

func TestNormalizeInvoice(t *testing.T) {
	var inv Invoice
	data := `{"t1":{"headers":["رقم","المبلغ","ملاحظة"],"rows":[[7,"5$","x"]]}}`
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got := NormalizeInvoice(inv, fixedNow)

	if got.ID == "" || got.Name != UnnamedInvoice || got.Date != "2024-03-09" || got.Currency != "$" {
		t.Errorf("defaults not applied: %+v", got)
	}

	wantHeaders := []string{"رقم", "ملاحظة", "عمود 3", "عمود 4", "عمود 5", AmountHeader}
	if diff := cmp.Diff(wantHeaders, got.Operations.Headers); diff != "" {
		t.Errorf("t1 headers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"1", "x", "", "", "", "5$"}}, got.Operations.Rows); diff != "" {
		t.Errorf("t1 rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultHeaders(), got.Receipts.Headers); diff != "" {
		t.Errorf("t2 headers mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDocumentKeepsOneInvoice(t *testing.T) {
	got := NormalizeDocument(Document{Version: 1, ClientID: "c"}, fixedNow)

	if got.Version != SchemaVersion || got.ClientID != "c" {
		t.Errorf("header = %d %q", got.Version, got.ClientID)
	}
	if len(got.Invoices) != 1 || got.Invoices[0].Name != DefaultInvoiceName {
		t.Errorf("invoices = %+v", got.Invoices)
	}
}

func TestDocumentClone(t *testing.T) {
	doc := NewDocument("c", "", fixedNow)
	cp := doc.Clone()
	cp.Invoices[0].Operations.Rows[0][1] = "changed"
	cp.Invoices[0].Name = "other"

	if doc.Invoices[0].Operations.Rows[0][1] != "" || doc.Invoices[0].Name != DefaultInvoiceName {
		t.Error("Clone() shares state with the original")
	}
	if doc.Find(doc.Invoices[0].ID) != 0 || doc.Find("missing") != -1 {
		t.Error("Find() returned wrong index")
	}
}

func TestInvoiceTable(t *testing.T) {
	inv := NewInvoice("x", "$", fixedNow)

	ops, ok := inv.Table(TabOperations)
	if !ok || ops != &inv.Operations {
		t.Error("ops tab does not map to operations")
	}
	pay, ok := inv.Table(TabReceipts)
	if !ok || pay != &inv.Receipts {
		t.Error("pay tab does not map to receipts")
	}
	if _, ok := inv.Table(TabFinal); ok {
		t.Error("final tab should have no table")
	}

	if k, ok := ParseTabKey(" pay "); !ok || k != TabReceipts {
		t.Errorf("ParseTabKey() = %q, %v", k, ok)
	}
	if _, ok := ParseTabKey("sheet"); ok {
		t.Error("ParseTabKey() accepted unknown key")
	}
}

func TestMatchesTerm(t *testing.T) {
	inv := Invoice{Name: "فاتورة   Main", Date: "2024-01-05", Currency: "IQD"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"main", true},
		{"فاتورة main", true},
		{"2024-01", true},
		{"iqd", true},
		{"usd", false},
	}
	for _, tt := range tests {
		if got := MatchesTerm(inv, tt.term); got != tt.want {
			t.Errorf("MatchesTerm(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestCurrencies(t *testing.T) {
	c := NewCurrencies(nil, "")

	tests := map[string]string{
		"IQD":  "IQD",
		"usd":  "USD",
		" USD": "USD",
		"EUR":  "$",
		"":     "$",
	}
	for code, want := range tests {
		if got := c.Symbol(code); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", code, got, want)
		}
	}

	custom := NewCurrencies(map[string]string{"eur": "€"}, "؟")
	if custom.Symbol("EUR") != "€" || custom.Symbol("IQD") != "؟" {
		t.Error("custom currency table not honoured")
	}
}
