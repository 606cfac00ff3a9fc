package driven

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// KeyLedger records which original identifier each safe key was derived
// from, and what was last written under it.
type KeyLedger interface {
	// Record stores or replaces entries by safe key.
	Record(ctx context.Context, entries []domain.LedgerEntry) error

	// Get returns the entry for a safe key, or domain.ErrNotFound.
	Get(ctx context.Context, safeID string) (*domain.LedgerEntry, error)

	// FindByOriginal returns the entry for an original identifier,
	// or domain.ErrNotFound.
	FindByOriginal(ctx context.Context, originalID string) (*domain.LedgerEntry, error)

	// Count returns the number of recorded keys.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
