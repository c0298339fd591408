// =============================================================================
// Invoice Ledger - Document Store
// =============================================================================
//
// Store owns the single authoritative in-memory Document of one client and is
// the only path through which it changes. Every successful mutation restarts a
// trailing debounce timer; when the document has been quiet for the configured
// delay it is serialized and handed to the Adapter.
//
// PERSISTENCE RULES:
//   - A missing, unparsable or wrong-version stored document is replaced by a
//     default document without reporting an error.
//   - At most one save is pending per store. A new mutation cancels it and
//     schedules another.
//   - Reload discards memory state in favour of the stored copy (last writer
//     wins, no merge).
//   - Import replaces the document wholesale, only after validation and
//     confirmation.
//
// =============================================================================

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/invoice-ledger/internal/ledger"
	"github.com/ginjaninja78/invoice-ledger/internal/validation"
)

// DefaultDebounce is the quiet period before a save.
const DefaultDebounce = 200 * time.Millisecond

var (
	// ErrInvoiceNotFound is returned for unknown invoice ids.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrImportDeclined is returned when the confirmation callback refuses an
	// import.
	ErrImportDeclined = errors.New("import declined")

	// ErrNoTable is returned for tabs without a table.
	ErrNoTable = errors.New("tab has no table")
)

// Options configures a Store.
type Options struct {
	// Key is the adapter key. Defaults to Key(ClientID).
	Key string

	ClientID   string
	ClientName string

	// Debounce is the save delay. Zero means DefaultDebounce.
	Debounce time.Duration

	// Scheduler runs debounced saves. Nil means TimerScheduler.
	Scheduler Scheduler

	Logger zerolog.Logger

	// Now supplies dates for new invoices. Nil means time.Now.
	Now func() time.Time

	// Backup, when set, receives the serialized document an import is about
	// to replace.
	Backup func(data []byte) error
}

type selectionKey struct {
	invoiceID string
	tab       ledger.TabKey
}

// Store is safe for concurrent use.
type Store struct {
	adapter Adapter
	opts    Options
	log     zerolog.Logger

	mu         sync.Mutex
	doc        ledger.Document
	selections map[selectionKey]*ledger.Selection
	pending    Handle
	generation uint64
	dirty      bool
	revision   string

	// saveMu serializes adapter writes.
	saveMu sync.Mutex
}

// Open creates a store and loads the document stored under the key.
func Open(ctx context.Context, adapter Adapter, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = Key(opts.ClientID)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		adapter:    adapter,
		opts:       opts,
		log:        opts.Logger.With().Str("component", "store").Str("key", opts.Key).Logger(),
		selections: make(map[selectionKey]*ledger.Selection),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// =============================================================================
// LOAD / RELOAD
// =============================================================================

// Reload replaces the in-memory document with the stored one. A pending save
// is dropped. Adapter I/O failures are returned; missing or malformed data
// yields a default document.
func (s *Store) Reload(ctx context.Context) error {
	data, err := s.adapter.Load(ctx, s.opts.Key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to load %s: %w", s.opts.Key, err)
	}

	doc, reason := s.decode(data, err)
	if reason != "" {
		s.log.Debug().Str("reason", reason).Msg("using default document")
	}

	rev := s.currentRevision(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	s.doc = doc
	s.dirty = false
	s.revision = rev
	s.selections = make(map[selectionKey]*ledger.Selection)
	return nil
}

// decode turns stored bytes into a document. The reason is empty when the
// stored document was used as is.
func (s *Store) decode(data []byte, loadErr error) (ledger.Document, string) {
	now := s.opts.Now()
	fallback := ledger.NewDocument(s.opts.ClientID, s.opts.ClientName, now)

	if loadErr != nil {
		return fallback, "not found"
	}

	var doc ledger.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fallback, "unparsable: " + err.Error()
	}
	if doc.Version != ledger.SchemaVersion {
		return fallback, fmt.Sprintf("version %d", doc.Version)
	}

	if doc.ClientID == "" {
		doc.ClientID = s.opts.ClientID
	}
	if doc.ClientName == "" {
		doc.ClientName = s.opts.ClientName
	}
	return ledger.NormalizeDocument(doc, now), ""
}

func (s *Store) currentRevision(ctx context.Context) string {
	r, ok := s.adapter.(Revisioner)
	if !ok {
		return ""
	}
	rev, err := r.Revision(ctx, s.opts.Key)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read revision")
		return ""
	}
	return rev
}

// =============================================================================
// READS
// =============================================================================

// Key returns the adapter key of the document.
func (s *Store) Key() string { return s.opts.Key }

// Document returns a deep copy of the current document.
func (s *Store) Document() ledger.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Invoice returns a copy of one invoice.
func (s *Store) Invoice(id string) (ledger.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.doc.Find(id)
	if i < 0 {
		return ledger.Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
	}
	return s.doc.Invoices[i].Clone(), nil
}

// ResolveInvoice finds an invoice by id, falling back to an exact name match.
// An empty reference means the first invoice.
func (s *Store) ResolveInvoice(ref string) (ledger.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return s.doc.Invoices[0].Clone(), nil
	}
	if i := s.doc.Find(ref); i >= 0 {
		return s.doc.Invoices[i].Clone(), nil
	}
	for _, inv := range s.doc.Invoices {
		if inv.Name == ref {
			return inv.Clone(), nil
		}
	}
	return ledger.Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, ref)
}

// Selection returns the live selection of one invoice table. The pointer
// stays valid until the next Reload or Import.
func (s *Store) Selection(invoiceID string, tab ledger.TabKey) *ledger.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked(invoiceID, tab)
}

func (s *Store) selectionLocked(invoiceID string, tab ledger.TabKey) *ledger.Selection {
	k := selectionKey{invoiceID, tab}
	sel, ok := s.selections[k]
	if !ok {
		sel = &ledger.Selection{}
		s.selections[k] = sel
	}
	return sel
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Mutate runs fn against the document under the store lock. When fn returns
// nil the result is normalized and a save is scheduled.
func (s *Store) Mutate(fn func(doc *ledger.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.doc.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	s.doc = ledger.NormalizeDocument(work, s.opts.Now())
	s.markDirtyLocked()
	return nil
}

// Apply runs a table command against one invoice tab and returns the
// resulting table. Selection commands do not schedule a save.
func (s *Store) Apply(invoiceID string, tab ledger.TabKey, cmd ledger.Command) (ledger.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.doc.Find(invoiceID)
	if i < 0 {
		return ledger.Table{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
	}

	inv := &s.doc.Invoices[i]
	tbl, ok := inv.Table(tab)
	if !ok {
		return ledger.Table{}, fmt.Errorf("%w: %s", ErrNoTable, tab)
	}

	*tbl = ledger.Apply(*tbl, s.selectionLocked(invoiceID, tab), inv.Currency, cmd)
	if ledger.Mutates(cmd) {
		s.markDirtyLocked()
		s.log.Debug().Str("invoice", invoiceID).Str("tab", string(tab)).Stringer("command", cmd).Msg("applied")
	}
	return tbl.Clone(), nil
}

// CreateInvoice prepends a new default invoice. An empty name becomes
// "فاتورة N" where N is the new invoice count.
func (s *Store) CreateInvoice(name string) ledger.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %d", ledger.UnnamedInvoice, len(s.doc.Invoices)+1)
	}

	inv := ledger.NewInvoice(name, ledger.DefaultCurrencySymbol, s.opts.Now())
	s.doc.Invoices = append([]ledger.Invoice{inv}, s.doc.Invoices...)
	s.markDirtyLocked()
	return inv.Clone()
}

// DeleteInvoice removes an invoice with both of its tables. Deleting the last
// invoice leaves a fresh default one in its place.
func (s *Store) DeleteInvoice(id string) error {
	return s.Mutate(func(doc *ledger.Document) error {
		i := doc.Find(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
		}
		doc.Invoices = append(doc.Invoices[:i], doc.Invoices[i+1:]...)
		return nil
	})
}

// RenameInvoice sets an invoice name. Blank names are ignored.
func (s *Store) RenameInvoice(id, name string) error {
	return s.updateInvoice(id, func(inv *ledger.Invoice) {
		if name = strings.TrimSpace(name); name != "" {
			inv.Name = name
		}
	})
}

// SetInvoiceDate sets an invoice date. The text is stored as given; dates
// that do not parse are excluded from date-range filters.
func (s *Store) SetInvoiceDate(id, date string) error {
	return s.updateInvoice(id, func(inv *ledger.Invoice) {
		inv.Date = strings.TrimSpace(date)
	})
}

// SetInvoiceCurrency changes the currency symbol and rewrites every amount
// cell of both tables with it.
func (s *Store) SetInvoiceCurrency(id, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil
	}
	return s.updateInvoice(id, func(inv *ledger.Invoice) {
		inv.Currency = symbol
		inv.Operations = inv.Operations.Reformat(symbol)
		inv.Receipts = inv.Receipts.Reformat(symbol)
	})
}

func (s *Store) updateInvoice(id string, fn func(inv *ledger.Invoice)) error {
	return s.Mutate(func(doc *ledger.Document) error {
		i := doc.Find(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
		}
		fn(&doc.Invoices[i])
		return nil
	})
}

// =============================================================================
// DEBOUNCED SAVE
// =============================================================================

func (s *Store) markDirtyLocked() {
	s.dirty = true
	s.cancelPendingLocked()
	gen := s.generation
	s.pending = s.opts.Scheduler.Schedule(s.opts.Debounce, func() { s.saveScheduled(gen) })
}

// cancelPendingLocked stops the pending timer and bumps the generation, so a
// timer that already fired and is waiting for the lock does nothing.
func (s *Store) cancelPendingLocked() {
	s.generation++
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
}

func (s *Store) saveScheduled(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	if err := s.save(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("debounced save failed")
	}
}

// Pending reports whether a save is scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush cancels the pending save and writes the document now if it changed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.mu.Unlock()

	return s.save(ctx)
}

// Close flushes pending changes.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

func (s *Store) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	data, err := json.Marshal(s.doc)
	s.dirty = false
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.adapter.Save(ctx, s.opts.Key, data); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}

	rev := s.currentRevision(ctx)
	s.mu.Lock()
	s.revision = rev
	s.mu.Unlock()

	s.log.Debug().Int("bytes", len(data)).Msg("document saved")
	return nil
}

// =============================================================================
// EXTERNAL CHANGES
// =============================================================================

// CheckExternal reloads the document when the adapter reports a revision
// other than the one last seen by this store. It reports whether a reload
// happened. Adapters without revisions never trigger one.
func (s *Store) CheckExternal(ctx context.Context) (bool, error) {
	if _, ok := s.adapter.(Revisioner); !ok {
		return false, nil
	}

	rev := s.currentRevision(ctx)

	s.mu.Lock()
	changed := rev != s.revision
	s.mu.Unlock()

	if !changed {
		return false, nil
	}

	s.log.Info().Str("revision", rev).Msg("stored document changed, reloading")
	return true, s.Reload(ctx)
}

// Watch polls for external changes until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CheckExternal(ctx); err != nil {
				s.log.Warn().Err(err).Msg("reload failed")
			}
		}
	}
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// Export serializes the current document as a backup.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Import replaces the document with a validated backup. confirm sees the
// parsed document and may refuse; on any failure the current document is
// left untouched. The replacement is written immediately.
func (s *Store) Import(ctx context.Context, data []byte, confirm func(ledger.Document) bool) error {
	doc, err := validation.ValidateDocument(data, s.opts.Now())
	if err != nil {
		s.log.Warn().Err(err).Msg("import rejected")
		return fmt.Errorf("failed to import document: %w", err)
	}

	if confirm != nil && !confirm(doc.Clone()) {
		return ErrImportDeclined
	}

	if s.opts.Backup != nil {
		previous, err := s.Export()
		if err != nil {
			return err
		}
		if err := s.opts.Backup(previous); err != nil {
			return fmt.Errorf("failed to back up current document: %w", err)
		}
	}

	s.mu.Lock()
	s.cancelPendingLocked()
	s.doc = *doc
	s.dirty = true
	s.selections = make(map[selectionKey]*ledger.Selection)
	s.mu.Unlock()

	s.log.Info().Int("invoices", len(doc.Invoices)).Msg("document imported")
	return s.save(ctx)
}
