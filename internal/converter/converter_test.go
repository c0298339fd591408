package converter

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/types"
	"github.com/ginjaninja78/invoice-ledger/internal/xlsxwriter"
	"github.com/ginjaninja78/invoice-ledger/internal/xmlwriter"
	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

var fixedNow = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func sampleInvoice(name, date string) ledger.Invoice {
	inv := ledger.NewInvoice(name, "IQD", fixedNow)
	inv.Date = date
	inv.Operations = ledger.Table{
		Headers: []string{"رقم", "البيان", "المبلغ"},
		Rows:    [][]string{{"1", "شغل", "150IQD"}, {"2", "نقل", "50IQD"}},
	}
	inv.Receipts = ledger.Table{
		Headers: []string{"رقم", "البيان", "المبلغ"},
		Rows:    [][]string{{"1", "دفعة", "120IQD"}},
	}
	return inv
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"العمليات", "العمليات"},
		{"a[b]c*d/e\\f?g:h", "a b c d e f g h"},
		{"  [::]  ", DefaultSheetName},
		{"", DefaultSheetName},
		{strings.Repeat("ب", 40), strings.Repeat("ب", 31)},
		{"'شركة النور'", "شركة النور"},
		{"  'x'  ", "x"},
		{"''", DefaultSheetName},
		{strings.Repeat("ب", 30) + " 'ج", strings.Repeat("ب", 30)},
	}

	for _, tt := range tests {
		if got := SanitizeSheetName(tt.in); got != tt.want {
			t.Errorf("SanitizeSheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueSheetNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := UniqueSheetNames([]string{"a", "a", long, long, "A"})

	want := []string{"a", "a (2)", strings.Repeat("x", 31), strings.Repeat("x", 27) + " (2)", "A (3)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UniqueSheetNames mismatch (-want +got):\n%s", diff)
	}
	for _, name := range got {
		if n := len([]rune(name)); n > MaxSheetNameLength {
			t.Errorf("%q has %d characters", name, n)
		}
	}
}

func TestTableSheetTotalsRow(t *testing.T) {
	inv := sampleInvoice("فاتورة 1", "2024-01-02")
	sheet := TableSheet("العمليات", inv.Operations, "إجمالي العمليات", "IQD")

	want := [][]any{
		{"رقم", "البيان", "المبلغ"},
		{"1", "شغل", "150IQD"},
		{"2", "نقل", "50IQD"},
		{"", "إجمالي العمليات", "200IQD"},
	}
	if diff := cmp.Diff(want, sheet.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	bare := TableSheet("x", inv.Operations, "", "IQD")
	if len(bare.Rows) != 3 {
		t.Errorf("rows without totals = %d, want 3", len(bare.Rows))
	}
}

func TestExportScopes(t *testing.T) {
	labels := config.DefaultLabels()
	inv := sampleInvoice("فاتورة 1", "2024-01-02")

	tab, err := ExportTab(inv, ledger.TabFinal, labels)
	if err != nil {
		t.Fatalf("ExportTab() error = %v", err)
	}
	if tab.Name != "فاتورة 1-الحساب النهائي" || len(tab.Sheets) != 1 {
		t.Errorf("tab workbook = %+v", tab)
	}
	wantFinal := [][]any{
		{"إجمالي العمليات", "200IQD"},
		{"مجموع القبوضات", "120IQD"},
		{"الرصيد النهائي", "80IQD"},
	}
	if diff := cmp.Diff(wantFinal, tab.Sheets[0].Rows); diff != "" {
		t.Errorf("final sheet mismatch (-want +got):\n%s", diff)
	}

	if _, err := ExportTab(inv, ledger.TabKey("x"), labels); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("ExportTab(x) error = %v", err)
	}

	full := ExportInvoice(inv, labels)
	var names []string
	for _, s := range full.Sheets {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"العمليات", "القبوضات", "الحساب النهائي"}, names); diff != "" {
		t.Errorf("invoice sheets mismatch (-want +got):\n%s", diff)
	}
	if full.Name != "فاتورة 1-كامل" {
		t.Errorf("Name = %q", full.Name)
	}
}

func TestExportClientRange(t *testing.T) {
	labels := config.DefaultLabels()
	doc := ledger.Document{
		Version:    ledger.SchemaVersion,
		ClientName: "أحمد",
		Invoices: []ledger.Invoice{
			sampleInvoice("فاتورة 2", "2024-02-10"),
			sampleInvoice("فاتورة 1", "2024-01-02"),
		},
	}

	wb, err := ExportClient(doc, ledger.NewDateRange("2024-02-01", ""), labels)
	if err != nil {
		t.Fatalf("ExportClient() error = %v", err)
	}
	if wb.Name != "فواتير-أحمد" || wb.Invoices != 1 || wb.RangeFellBack {
		t.Errorf("workbook = %+v", wb)
	}
	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	want := []string{"ملخص", "فاتورة 2-عمليات", "فاتورة 2-قبوضات", "فاتورة 2-نهائي"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("sheet names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"فاتورة 2", "2024-02-10", "IQD", 200.0, 120.0, 80.0}, wb.Sheets[0].Rows[1]); diff != "" {
		t.Errorf("summary row mismatch (-want +got):\n%s", diff)
	}

	none, err := ExportClient(doc, ledger.NewDateRange("2030-01-01", "2030-12-31"), labels)
	if err != nil {
		t.Fatalf("ExportClient() error = %v", err)
	}
	if !none.RangeFellBack || none.Invoices != 2 || len(none.Sheets) != 7 {
		t.Errorf("fallback workbook: fellBack=%v invoices=%d sheets=%d", none.RangeFellBack, none.Invoices, len(none.Sheets))
	}

	if _, err := ExportClient(ledger.Document{}, ledger.DateRange{}, labels); !errors.Is(err, ErrNoInvoices) {
		t.Errorf("empty document error = %v", err)
	}
}

func TestExportClientMixedCurrencies(t *testing.T) {
	labels := config.DefaultLabels()

	dollars := ledger.NewInvoice("أ", "$", fixedNow)
	dollars.Date = "2024-01-05"
	dollars.Operations = ledger.SetCell(dollars.Operations, 0, 5, "100", "$")

	dinars := ledger.NewInvoice("ب", "IQD", fixedNow)
	dinars.Date = "2024-01-20"
	dinars.Operations = ledger.SetCell(dinars.Operations, 0, 5, "50000", "IQD")

	doc := ledger.Document{Version: ledger.SchemaVersion, Invoices: []ledger.Invoice{dollars, dinars}}
	wb, err := ExportClient(doc, ledger.DateRange{}, labels)
	if err != nil {
		t.Fatalf("ExportClient() error = %v", err)
	}

	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	wantNames := []string{"ملخص", "أ-عمليات", "أ-قبوضات", "أ-نهائي", "ب-عمليات", "ب-قبوضات", "ب-نهائي"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("sheet names mismatch (-want +got):\n%s", diff)
	}

	wantSummary := [][]any{
		{"أ", "2024-01-05", "$", 100.0, 0.0, 100.0},
		{"ب", "2024-01-20", "IQD", 50000.0, 0.0, 50000.0},
	}
	if diff := cmp.Diff(wantSummary, wb.Sheets[0].Rows[1:]); diff != "" {
		t.Errorf("summary rows mismatch (-want +got):\n%s", diff)
	}

	for _, tt := range []struct {
		sheet int
		total string
	}{{1, "100$"}, {4, "50000IQD"}} {
		rows := wb.Sheets[tt.sheet].Rows
		last := rows[len(rows)-1]
		if got := last[len(last)-1]; got != tt.total {
			t.Errorf("%s totals = %v, want %s", wb.Sheets[tt.sheet].Name, got, tt.total)
		}
	}

	wantFinal := map[int][][]any{
		3: {{"إجمالي العمليات", "100$"}, {"مجموع القبوضات", "0$"}, {"الرصيد النهائي", "100$"}},
		6: {{"إجمالي العمليات", "50000IQD"}, {"مجموع القبوضات", "0IQD"}, {"الرصيد النهائي", "50000IQD"}},
	}
	for i, want := range wantFinal {
		if diff := cmp.Diff(want, wb.Sheets[i].Rows); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", wb.Sheets[i].Name, diff)
		}
	}

	var buf bytes.Buffer
	if err := xlsxwriter.New().Write(&buf, wb.Sheets); err != nil {
		t.Fatalf("xlsx Write() error = %v", err)
	}
	sheets, err := xlsxwriter.ReadWorkbook(&buf)
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(sheets) != 7 {
		t.Errorf("workbook has %d sheets, want 7", len(sheets))
	}
}

func TestExportClientQuotedInvoiceName(t *testing.T) {
	doc := ledger.Document{Version: ledger.SchemaVersion, Invoices: []ledger.Invoice{
		sampleInvoice("'شركة النور'", "2024-01-02"),
	}}
	wb, err := ExportClient(doc, ledger.DateRange{}, config.DefaultLabels())
	if err != nil {
		t.Fatalf("ExportClient() error = %v", err)
	}
	for _, s := range wb.Sheets {
		if strings.HasPrefix(s.Name, "'") || strings.HasSuffix(s.Name, "'") {
			t.Errorf("sheet name %q starts or ends with an apostrophe", s.Name)
		}
	}
	if err := xlsxwriter.New().Write(&bytes.Buffer{}, wb.Sheets); err != nil {
		t.Errorf("xlsx Write() error = %v", err)
	}
}

type stubWriter struct {
	err error
}

func (s stubWriter) Name() string        { return "stub" }
func (s stubWriter) Extension() string   { return ".stub" }
func (s stubWriter) ContentType() string { return "application/octet-stream" }
func (s stubWriter) Write(w io.Writer, _ []types.Sheet) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("stub"))
	return err
}

func newExporter(native, fallback types.WorkbookWriter, dir string) *Exporter {
	return &Exporter{
		Native:         native,
		Fallback:       fallback,
		Files:          utils.NewFileManager("", dir, ""),
		FileNameFormat: "{name}-{date}",
		Logger:         zerolog.Nop(),
		Now:            func() time.Time { return fixedNow },
	}
}

func TestExporterSelection(t *testing.T) {
	wb := ExportInvoice(sampleInvoice("فاتورة 1", "2024-01-02"), config.DefaultLabels())

	t.Run("native", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := newExporter(xlsxwriter.New(), xmlwriter.New(), "").Write(&buf, wb)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if res.Backend != "xlsx" || res.WriterFellBack || res.FileName != "فاتورة 1-كامل.xlsx" {
			t.Errorf("result = %+v", res)
		}
		sheets, err := xlsxwriter.ReadWorkbook(&buf)
		if err != nil {
			t.Fatalf("ReadWorkbook() error = %v", err)
		}
		if len(sheets) != 3 {
			t.Errorf("sheets = %d, want 3", len(sheets))
		}
	})

	t.Run("native unavailable", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := newExporter(&xlsxwriter.Writer{Disabled: true}, xmlwriter.New(), "").Write(&buf, wb)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if res.Backend != "spreadsheetml" || !res.WriterFellBack || filepath.Ext(res.FileName) != ".xls" {
			t.Errorf("result = %+v", res)
		}
		if !strings.Contains(buf.String(), `<Worksheet ss:Name="الحساب النهائي">`) {
			t.Error("fallback output missing final sheet")
		}
	})

	t.Run("no native writer", func(t *testing.T) {
		res, err := newExporter(nil, stubWriter{}, "").Write(&bytes.Buffer{}, wb)
		if err != nil || !res.WriterFellBack {
			t.Errorf("Write() = %+v, %v", res, err)
		}
	})

	t.Run("fallback failure surfaces", func(t *testing.T) {
		blocked := errors.New("download blocked")
		_, err := newExporter(&xlsxwriter.Writer{Disabled: true}, stubWriter{err: blocked}, "").Write(&bytes.Buffer{}, wb)
		if !errors.Is(err, blocked) {
			t.Errorf("Write() error = %v, want %v", err, blocked)
		}
	})

	t.Run("native failure is not masked", func(t *testing.T) {
		broken := errors.New("disk full")
		_, err := newExporter(stubWriter{err: broken}, xmlwriter.New(), "").Write(&bytes.Buffer{}, wb)
		if !errors.Is(err, broken) {
			t.Errorf("Write() error = %v, want %v", err, broken)
		}
	})
}

func TestExporterWriteFile(t *testing.T) {
	dir := t.TempDir()
	wb := ExportInvoice(sampleInvoice("فاتورة 1", "2024-01-02"), config.DefaultLabels())

	res, err := newExporter(xlsxwriter.New(), xmlwriter.New(), dir).WriteFile(wb)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	want := filepath.Join(dir, "فاتورة 1-كامل-2024-03-09.xlsx")
	if res.OutputFile != want {
		t.Errorf("OutputFile = %q, want %q", res.OutputFile, want)
	}
	if info, err := os.Stat(want); err != nil || info.Size() != int64(res.Bytes) {
		t.Errorf("stat = %v, %v; want %d bytes", info, err, res.Bytes)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Export.Native = &off

	e := New(cfg, zerolog.Nop())
	res, err := e.Write(&bytes.Buffer{}, ExportInvoice(sampleInvoice("a", "2024-01-01"), cfg.Labels))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !res.WriterFellBack {
		t.Error("native: false did not force the fallback")
	}
}
