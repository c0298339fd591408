package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/printer"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/internal/xlsxwriter"
)

var fixedNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	inv := ledger.NewInvoice("فاتورة 1", "IQD", fixedNow)
	inv.ID = "inv-1"
	inv.Date = "2024-01-02"
	inv.Operations = ledger.Table{
		Headers: []string{"رقم", "البيان", "المبلغ"},
		Rows:    [][]string{{"1", "شغل", "150IQD"}, {"2", "نقل", "50IQD"}},
	}
	inv.Receipts = ledger.Table{
		Headers: []string{"رقم", "البيان", "المبلغ"},
		Rows:    [][]string{{"1", "دفعة", "120IQD"}},
	}
	doc := ledger.Document{Version: ledger.SchemaVersion, ClientID: "c1", ClientName: "أحمد", Invoices: []ledger.Invoice{inv}}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemoryAdapter()
	if err := mem.Save(context.Background(), store.Key("c1"), data); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	reg := store.NewRegistry(mem, store.Options{Now: func() time.Time { return fixedNow }})
	t.Cleanup(func() { reg.Close(context.Background()) })

	return NewServer(reg,
		converter.New(cfg, zerolog.Nop()),
		printer.NewPDFRenderer(cfg.Print, zerolog.Nop()),
		cfg.Labels,
		zerolog.Nop(),
	)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestBalance(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/documents/c1/balance?invoice="+url.QueryEscape("فاتورة 1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var got BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Operations != 200 || got.Receipts != 120 || got.Balance != 80 || got.Formatted.Balance != "80IQD" {
		t.Errorf("balance = %+v", got)
	}

	if rec := get(t, s, "/documents/c1/balance?invoice=missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing invoice status = %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/documents/c1/export?scope=client")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Workbook-Backend"); got != "xlsx" {
		t.Errorf("backend = %q", got)
	}
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil || params["filename"] != "فواتير-أحمد.xlsx" {
		t.Errorf("disposition = %q (%v)", rec.Header().Get("Content-Disposition"), err)
	}

	sheets, err := xlsxwriter.ReadWorkbook(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(sheets) != 4 || sheets[0].Name != "ملخص" {
		t.Errorf("sheets = %d, first %q", len(sheets), sheets[0].Name)
	}

	fallback := get(t, s, "/documents/c1/export?scope=client&from=2030-01-01")
	if fallback.Header().Get("X-Range-Fallback") != "true" {
		t.Error("range fallback not reported")
	}

	tab := get(t, s, "/documents/c1/export?scope=tab&tab=pay&invoice=inv-1")
	if tab.Code != http.StatusOK {
		t.Errorf("tab export status = %d: %s", tab.Code, tab.Body)
	}

	for _, target := range []string{
		"/documents/c1/export?scope=galaxy",
		"/documents/c1/export?scope=tab&tab=nope",
	} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d", target, rec.Code)
		}
	}
}

func TestPrint(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/documents/c1/print?scope=invoice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("not a PDF: %q", rec.Header().Get("Content-Type"))
	}

	text := get(t, s, "/documents/c1/print?scope=tab&tab=final&format=text")
	if text.Code != http.StatusOK || !strings.Contains(text.Body.String(), "التبويب: الحساب النهائي") {
		t.Errorf("text print = %d: %s", text.Code, text.Body)
	}

	if rec := get(t, s, "/documents/c1/print?scope=poster"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown scope status = %d", rec.Code)
	}
}

func TestDocumentAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/documents/c1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var doc ledger.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil || doc.ClientID != "c1" {
		t.Errorf("document = %+v (%v)", doc, err)
	}

	for _, target := range []string{"/documents/nobody", "/documents/nobody/balance", "/documents/nobody/export?scope=client"} {
		if rec := get(t, s, target); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
	}

	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
