package printer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
)

var fixedNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func sampleDoc() ledger.Document {
	mk := func(name, date string, ops, pay string) ledger.Invoice {
		inv := ledger.NewInvoice(name, "IQD", fixedNow)
		inv.ID = name
		inv.Date = date
		inv.Operations = ledger.Table{
			Headers: []string{"رقم", "المبلغ", "البيان"},
			Rows:    [][]string{{"1", ops, "شغل"}},
		}
		inv.Receipts = ledger.Table{
			Headers: []string{"رقم", "البيان", "المبلغ"},
			Rows:    [][]string{{"1", "دفعة", pay}},
		}
		return inv
	}
	return ledger.Document{
		Version:    ledger.SchemaVersion,
		ClientName: "أحمد",
		Invoices: []ledger.Invoice{
			mk("c", "2024-03-01", "300IQD", "100IQD"),
			mk("b", "2024-02-01", "200IQD", "0IQD"),
			mk("a", "bad date", "100IQD", "50IQD"),
		},
	}
}

func TestComposeInvoice(t *testing.T) {
	job, err := Compose(sampleDoc(), Request{Scope: ScopeInvoice, InvoiceID: "b"}, config.DefaultLabels())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(job.Units) != 1 {
		t.Fatalf("units = %d, want 1", len(job.Units))
	}
	u := job.Units[0]

	wantHeader := []string{"العميل: أحمد", "الفاتورة: b", "التاريخ: 2024-02-01", "العملة: IQD"}
	if diff := cmp.Diff(wantHeader, u.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if u.PageBreakAfter {
		t.Error("single unit has a page break")
	}

	ops := u.Tables[0]
	if diff := cmp.Diff([]string{"رقم", "البيان", "المبلغ"}, ops.Headers); diff != "" {
		t.Errorf("amount column not pinned (-want +got):\n%s", diff)
	}
	if ops.FooterSpan != 2 || ops.FooterTotal != "200IQD" || ops.FooterLabel != "إجمالي العمليات" {
		t.Errorf("footer = %q span %d %q", ops.FooterLabel, ops.FooterSpan, ops.FooterTotal)
	}

	if u.Final == nil {
		t.Fatal("full invoice has no final block")
	}
	wantFinal := []FinalLine{
		{"إجمالي العمليات", "200IQD"},
		{"مجموع القبوضات", "0IQD"},
		{"الرصيد النهائي", "200IQD"},
	}
	if diff := cmp.Diff(wantFinal, u.Final.Lines); diff != "" {
		t.Errorf("final mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"توقيع المستلم", "توقيع المحاسب"}, u.Final.Signatures); diff != "" {
		t.Errorf("signatures mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeTab(t *testing.T) {
	labels := config.DefaultLabels()

	job, err := Compose(sampleDoc(), Request{Scope: ScopeTab, Tab: ledger.TabReceipts}, labels)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	u := job.Units[0]
	if u.Header[3] != "التبويب: القبوضات" {
		t.Errorf("header = %v", u.Header)
	}
	if len(u.Tables) != 1 || u.Final != nil || u.Tables[0].FooterTotal != "100IQD" {
		t.Errorf("tab unit = %+v", u)
	}

	final, err := Compose(sampleDoc(), Request{Scope: ScopeTab, Tab: ledger.TabFinal, InvoiceID: "a"}, labels)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if fu := final.Units[0]; len(fu.Tables) != 0 || fu.Final == nil || fu.Final.Lines[2].Value != "50IQD" {
		t.Errorf("final tab unit = %+v", fu)
	}

	if _, err := Compose(sampleDoc(), Request{Scope: ScopeTab, Tab: "nope"}, labels); !errors.Is(err, converter.ErrUnknownTab) {
		t.Errorf("unknown tab error = %v", err)
	}
}

func TestComposeRange(t *testing.T) {
	labels := config.DefaultLabels()

	tests := []struct {
		name         string
		from, to     string
		wantNames    []string
		wantFellBack bool
	}{
		{"open end", "2024-02-01", "", []string{"الفاتورة: c", "الفاتورة: b"}, false},
		{"closed", "2024-01-01", "2024-02-15", []string{"الفاتورة: b"}, false},
		{"no match falls back", "2030-01-01", "", []string{"الفاتورة: c", "الفاتورة: b", "الفاتورة: a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := Compose(sampleDoc(), Request{Scope: ScopeRange, Range: ledger.NewDateRange(tt.from, tt.to)}, labels)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			var names []string
			for i, u := range job.Units {
				names = append(names, u.Header[1])
				if want := i < len(job.Units)-1; u.PageBreakAfter != want {
					t.Errorf("unit %d PageBreakAfter = %v, want %v", i, u.PageBreakAfter, want)
				}
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("units mismatch (-want +got):\n%s", diff)
			}
			if job.RangeFellBack != tt.wantFellBack {
				t.Errorf("RangeFellBack = %v", job.RangeFellBack)
			}
		})
	}
}

func TestComposeErrors(t *testing.T) {
	labels := config.DefaultLabels()
	if _, err := Compose(sampleDoc(), Request{Scope: "poster"}, labels); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("scope error = %v", err)
	}
	if _, err := Compose(sampleDoc(), Request{Scope: ScopeInvoice, InvoiceID: "zz"}, labels); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("invoice error = %v", err)
	}
	if _, err := ParseScope("range"); err != nil {
		t.Errorf("ParseScope(range) error = %v", err)
	}
	if _, err := ParseScope("x"); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("ParseScope(x) error = %v", err)
	}
}

func TestPDFRendererPages(t *testing.T) {
	job, err := Compose(sampleDoc(), Request{Scope: ScopeAll}, config.DefaultLabels())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	r := NewPDFRenderer(config.PrintConfig{PageSize: "A4"}, zerolog.Nop())
	var buf bytes.Buffer
	pages, err := r.Render(&buf, job.Units)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	missing := &PDFRenderer{FontPath: "/does/not/exist.ttf"}
	if _, err := missing.Render(&bytes.Buffer{}, job.Units); err == nil {
		t.Error("missing font accepted")
	}
}

func TestWriteText(t *testing.T) {
	job, err := Compose(sampleDoc(), Request{Scope: ScopeAll}, config.DefaultLabels())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, job.Units); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	if got := strings.Count(out, PageBreak); got != 2 {
		t.Errorf("page breaks = %d, want 2", got)
	}
	if !strings.Contains(out, "الرصيد النهائي") {
		t.Error("final block missing")
	}
}
