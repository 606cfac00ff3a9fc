package memory

import (
	"context"
	"sync"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
)

// Ensure KeyLedger implements the interface.
var _ driven.KeyLedger = (*KeyLedger)(nil)

// KeyLedger is an in-memory implementation of driven.KeyLedger.
// Entries are lost when the process exits.
type KeyLedger struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry
	// byOriginal maps an original identifier to its safe key.
	byOriginal map[string]string
}

// NewKeyLedger creates an empty ledger.
func NewKeyLedger() *KeyLedger {
	return &KeyLedger{
		entries:    make(map[string]domain.LedgerEntry),
		byOriginal: make(map[string]string),
	}
}

// Record stores or replaces entries by safe key.
func (l *KeyLedger) Record(_ context.Context, entries []domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if prev, ok := l.entries[e.SafeID]; ok && prev.OriginalID != e.OriginalID {
			delete(l.byOriginal, prev.OriginalID)
		}
		l.entries[e.SafeID] = e
		l.byOriginal[e.OriginalID] = e.SafeID
	}
	return nil
}

// Get returns the entry for a safe key.
func (l *KeyLedger) Get(_ context.Context, safeID string) (*domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[safeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// FindByOriginal returns the entry for an original identifier.
func (l *KeyLedger) FindByOriginal(ctx context.Context, originalID string) (*domain.LedgerEntry, error) {
	l.mu.RLock()
	key, ok := l.byOriginal[originalID]
	l.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Get(ctx, key)
}

// Count returns the number of recorded keys.
func (l *KeyLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries), nil
}

// Close is a no-op.
func (l *KeyLedger) Close() error {
	return nil
}
