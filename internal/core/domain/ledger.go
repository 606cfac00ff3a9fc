package domain

import "time"

// LedgerEntry records what was last written to the index for one document.
// The ledger is how a safe key is traced back to its original identifier.
type LedgerEntry struct {
	SafeID     string
	OriginalID string
	Name       string
	Source     Source
	Path       string

	// Fingerprint is a digest of the written content and metadata.
	Fingerprint string

	// Vectorised is true when the write carried an embedding.
	Vectorised bool

	IndexedAt time.Time
}
