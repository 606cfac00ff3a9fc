package services

import (
	"context"
	"fmt"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
)

// Ensure KeyService implements the interface.
var _ driving.KeyService = (*KeyService)(nil)

// KeyService derives safe keys and resolves them through the ledger.
type KeyService struct {
	ledger driven.KeyLedger
}

// NewKeyService creates a key service. The ledger is optional (can be nil).
func NewKeyService(ledger driven.KeyLedger) *KeyService {
	return &KeyService{ledger: ledger}
}

// SafeKey returns the index key for an original identifier.
func (k *KeyService) SafeKey(raw string) (string, error) {
	return domain.MakeSafeKey(raw)
}

// Lookup returns the ledger entry for a safe key.
func (k *KeyService) Lookup(ctx context.Context, safeID string) (*domain.LedgerEntry, error) {
	if k.ledger == nil {
		return nil, domain.ErrLedgerUnavailable
	}
	entry, err := k.ledger.Get(ctx, safeID)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", safeID, err)
	}
	return entry, nil
}

// LookupOriginal returns the ledger entry for an original identifier.
func (k *KeyService) LookupOriginal(ctx context.Context, originalID string) (*domain.LedgerEntry, error) {
	if k.ledger == nil {
		return nil, domain.ErrLedgerUnavailable
	}
	entry, err := k.ledger.FindByOriginal(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("lookup original %s: %w", originalID, err)
	}
	return entry, nil
}
