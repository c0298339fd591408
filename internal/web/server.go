// Package web serves ledger documents as workbooks, PDFs and balances.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/config"
	"github.com/ginjaninja78/invoice-ledger/internal/converter"
	"github.com/ginjaninja78/invoice-ledger/internal/logging"
	"github.com/ginjaninja78/invoice-ledger/internal/printer"
	"github.com/ginjaninja78/invoice-ledger/internal/store"
)

// Stores hands out the store of a client that has a stored document.
type Stores interface {
	Lookup(ctx context.Context, clientID string) (*store.Store, error)
}

// Server is the HTTP download surface.
type Server struct {
	stores   Stores
	exporter *converter.Exporter
	renderer *printer.PDFRenderer
	labels   config.Labels
	logger   zerolog.Logger

	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server with its routes mounted.
func NewServer(stores Stores, exporter *converter.Exporter, renderer *printer.PDFRenderer, labels config.Labels, logger zerolog.Logger) *Server {
	s := &Server{
		stores:   stores,
		exporter: exporter,
		renderer: renderer,
		labels:   labels,
		logger:   logger.With().Str("component", "web").Logger(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.withLogger)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/documents/{client}", func(r chi.Router) {
		r.Get("/", s.handleDocument)
		r.Get("/balance", s.handleBalance)
		r.Get("/export", s.handleExport)
		r.Get("/print", s.handlePrint)
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// withLogger puts the server logger on the request context.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithContext(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request")
	})
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError logs err and writes a JSON error with a status derived from it.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := logging.FromContext(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request error")

	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvoiceNotFound),
		errors.Is(err, store.ErrUnknownClient),
		errors.Is(err, printer.ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, converter.ErrUnknownTab),
		errors.Is(err, printer.ErrUnknownScope),
		errors.Is(err, converter.ErrNoInvoices):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure can only be a broken client.
	_ = json.NewEncoder(w).Encode(v)
}
