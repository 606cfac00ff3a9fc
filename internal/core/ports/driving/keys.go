package driving

import (
	"context"

	"github.com/docspace-ai/docspace/internal/core/domain"
)

// KeyService derives index keys and traces them back to their origin.
type KeyService interface {
	// SafeKey returns the index key for an original identifier.
	SafeKey(raw string) (string, error)

	// Lookup returns the ledger entry for a safe key.
	Lookup(ctx context.Context, safeID string) (*domain.LedgerEntry, error)

	// LookupOriginal returns the ledger entry for an original identifier.
	LookupOriginal(ctx context.Context, originalID string) (*domain.LedgerEntry, error)
}
