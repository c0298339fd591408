package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/logging"
	"github.com/ginjaninja78/invoice-ledger/internal/printer"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
	"github.com/ginjaninja78/invoice-ledger/pkg/utils"
)

var errBadRequest = errors.New("bad request")

// BalanceResponse is the body of the balance endpoint.
type BalanceResponse struct {
	InvoiceID  string  `json:"invoice_id"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Currency   string  `json:"currency"`
	Operations float64 `json:"operations"`
	Receipts   float64 `json:"receipts"`
	Balance    float64 `json:"balance"`

	Formatted FormattedTotals `json:"formatted"`
}

// FormattedTotals holds the display strings of the totals.
type FormattedTotals struct {
	Operations string `json:"operations"`
	Receipts   string `json:"receipts"`
	Balance    string `json:"balance"`
}

func (s *Server) storeFor(r *http.Request) (*store.Store, error) {
	return s.stores.Lookup(r.Context(), chi.URLParam(r, "client"))
}

func parseTab(r *http.Request, def ledger.TabKey) (ledger.TabKey, error) {
	raw := r.URL.Query().Get("tab")
	if raw == "" {
		return def, nil
	}
	tab, ok := ledger.ParseTabKey(raw)
	if !ok {
		return "", fmt.Errorf("%w: %w: %q", errBadRequest, converter.ErrUnknownTab, raw)
	}
	return tab, nil
}

// handleDocument serves the JSON backup of a document.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := st.Export()
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

// handleBalance serves the totals of one invoice.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := st.ResolveInvoice(r.URL.Query().Get("invoice"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	t := ledger.InvoiceTotals(inv)
	writeJSON(w, http.StatusOK, BalanceResponse{
		InvoiceID:  inv.ID,
		Name:       inv.Name,
		Date:       inv.Date,
		Currency:   inv.Currency,
		Operations: t.Operations,
		Receipts:   t.Receipts,
		Balance:    t.Balance,
		Formatted: FormattedTotals{
			Operations: ledger.FormatAmount(t.Operations, inv.Currency),
			Receipts:   ledger.FormatAmount(t.Receipts, inv.Currency),
			Balance:    ledger.FormatAmount(t.Balance, inv.Currency),
		},
	})
}

// handleExport streams a workbook.
//
// Query: scope=client|invoice|tab, invoice=<id or name>, tab=ops|pay|final,
// from=, to= (client scope only).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()

	var wb converter.Workbook
	switch scope := q.Get("scope"); scope {
	case "", "client":
		wb, err = converter.ExportClient(st.Document(), ledger.NewDateRange(q.Get("from"), q.Get("to")), s.labels)
	case "invoice", "tab":
		var inv ledger.Invoice
		inv, err = st.ResolveInvoice(q.Get("invoice"))
		if err != nil {
			break
		}
		if scope == "invoice" {
			wb = converter.ExportInvoice(inv, s.labels)
			break
		}
		var tab ledger.TabKey
		if tab, err = parseTab(r, ledger.TabOperations); err == nil {
			wb, err = converter.ExportTab(inv, tab, s.labels)
		}
	default:
		err = fmt.Errorf("%w: unknown export scope %q", errBadRequest, scope)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	data, res, err := s.exporter.Encode(wb)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.RangeFellBack {
		logger := logging.FromContext(r.Context())
		logger.Warn().Msg(s.labels.RangeFallback)
	}

	w.Header().Set("X-Workbook-Backend", res.Backend)
	w.Header().Set("X-Range-Fallback", strconv.FormatBool(res.RangeFellBack))
	serveAttachment(w, res.ContentType, res.FileName, data)
}

// handlePrint streams a PDF, or plain text with format=text.
//
// Query: scope=tab|invoice|all|range, invoice=<id or name>,
// tab=ops|pay|final, from=, to=.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	st, err := s.storeFor(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()

	scopeName := q.Get("scope")
	if scopeName == "" {
		scopeName = string(printer.ScopeInvoice)
	}
	scope, err := printer.ParseScope(scopeName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	doc := st.Document()
	req := printer.Request{Scope: scope, Range: ledger.NewDateRange(q.Get("from"), q.Get("to"))}
	name := s.labels.ClientFilePrefix + "-" + clientName(doc, s.labels.UnknownClient)

	if scope == printer.ScopeTab || scope == printer.ScopeInvoice {
		inv, err := st.ResolveInvoice(q.Get("invoice"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		req.InvoiceID = inv.ID
		name = inv.Name
	}
	if scope == printer.ScopeTab {
		if req.Tab, err = parseTab(r, ledger.TabOperations); err != nil {
			respondError(w, r, err)
			return
		}
	}

	job, err := printer.Compose(doc, req, s.labels)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if job.RangeFellBack {
		logger := logging.FromContext(r.Context())
		logger.Warn().Msg(s.labels.RangeFallback)
	}
	w.Header().Set("X-Range-Fallback", strconv.FormatBool(job.RangeFellBack))

	var buf bytes.Buffer
	if q.Get("format") == "text" {
		if err := printer.WriteText(&buf, job.Units); err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}

	if _, err := s.renderer.Render(&buf, job.Units); err != nil {
		respondError(w, r, err)
		return
	}
	serveAttachment(w, s.renderer.ContentType(), utils.SanitizeFileName(name)+s.renderer.Extension(), buf.Bytes())
}

func clientName(doc ledger.Document, fallback string) string {
	if name := doc.ClientLabel(); name != "" {
		return name
	}
	return fallback
}

// serveAttachment writes a download with a UTF-8 safe file name.
func serveAttachment(w http.ResponseWriter, contentType, fileName string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
