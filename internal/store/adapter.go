package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by adapters when no document is stored under a key.
var ErrNotFound = errors.New("document not found")

// Adapter is a key-value store for serialized documents.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Revisioner is implemented by adapters that can report a token which changes
// whenever the stored document changes. Store.Watch polls it to notice writes
// made by other processes.
type Revisioner interface {
	Revision(ctx context.Context, key string) (string, error)
}

// KeyPrefix namespaces ledger documents inside a shared store.
const KeyPrefix = "agd_invoices::"

// Key returns the storage key of a client's document.
func Key(clientID string) string {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		clientID = "unknown"
	}
	return KeyPrefix + clientID
}
