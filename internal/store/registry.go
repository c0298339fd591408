package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Registry opens one Store per client on first use and keeps it open. When
// WatchInterval is set every opened store polls for external changes until
// the registry is closed.
type Registry struct {
	adapter Adapter
	base    Options

	// WatchInterval enables Store.Watch for opened stores.
	WatchInterval time.Duration

	mu     sync.Mutex
	stores map[string]*Store
	ctx    context.Context
	cancel context.CancelFunc
}

// ErrUnknownClient is returned by Lookup for a client with no stored document.
var ErrUnknownClient = errors.New("unknown client")

// NewRegistry creates a registry. base supplies every Options field except
// the key and client id.
func NewRegistry(adapter Adapter, base Options) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		adapter: adapter,
		base:    base,
		stores:  make(map[string]*Store),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Get returns the store of a client, opening it if needed. A client without
// a stored document starts from a fresh one.
func (r *Registry) Get(ctx context.Context, clientID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[clientID]; ok {
		return s, nil
	}
	return r.openLocked(ctx, clientID)
}

// Lookup is Get for readers: it only opens clients that already have a
// stored document and returns ErrUnknownClient otherwise, so unknown ids
// leave nothing open.
func (r *Registry) Lookup(ctx context.Context, clientID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[clientID]; ok {
		return s, nil
	}
	if _, err := r.adapter.Load(ctx, Key(clientID)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
		}
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	return r.openLocked(ctx, clientID)
}

func (r *Registry) openLocked(ctx context.Context, clientID string) (*Store, error) {
	opts := r.base
	opts.Key = Key(clientID)
	opts.ClientID = clientID
	s, err := Open(ctx, r.adapter, opts)
	if err != nil {
		return nil, err
	}
	r.stores[clientID] = s

	if r.WatchInterval > 0 {
		go s.Watch(r.ctx, r.WatchInterval)
	}
	return s, nil
}

// Close stops watchers and flushes every open store.
func (r *Registry) Close(ctx context.Context) error {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range r.stores {
		errs = append(errs, s.Close(ctx))
	}
	return errors.Join(errs...)
}
