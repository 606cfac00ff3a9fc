package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
)

// keyLedger implements driven.KeyLedger.
type keyLedger struct {
	store *Store
}

var _ driven.KeyLedger = (*keyLedger)(nil)

const ledgerColumns = `safe_id, original_id, name, source, path, fingerprint, vectorised, indexed_at`

// Record stores or replaces entries by safe key in one transaction.
func (l *keyLedger) Record(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// A reused original id moves to its new safe key.
	release, err := tx.PrepareContext(ctx, `DELETE FROM key_ledger WHERE original_id = ? AND safe_id <> ?`)
	if err != nil {
		return fmt.Errorf("preparing release: %w", err)
	}
	defer release.Close()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO key_ledger (`+ledgerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(safe_id) DO UPDATE SET
			original_id = excluded.original_id,
			name = excluded.name,
			source = excluded.source,
			path = excluded.path,
			fingerprint = excluded.fingerprint,
			vectorised = excluded.vectorised,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	for _, e := range entries {
		if _, err := release.ExecContext(ctx, e.OriginalID, e.SafeID); err != nil {
			return fmt.Errorf("recording %s: %w", e.SafeID, err)
		}
		_, err := upsert.ExecContext(ctx,
			e.SafeID, e.OriginalID, e.Name, string(e.Source), e.Path,
			e.Fingerprint, e.Vectorised, e.IndexedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("recording %s: %w", e.SafeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	return nil
}

// Get returns the entry for a safe key.
func (l *keyLedger) Get(ctx context.Context, safeID string) (*domain.LedgerEntry, error) {
	row := l.store.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM key_ledger WHERE safe_id = ?`, safeID)
	return scanEntry(row)
}

// FindByOriginal returns the entry for an original identifier.
func (l *keyLedger) FindByOriginal(ctx context.Context, originalID string) (*domain.LedgerEntry, error) {
	row := l.store.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM key_ledger WHERE original_id = ?`, originalID)
	return scanEntry(row)
}

// Count returns the number of recorded keys.
func (l *keyLedger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM key_ledger`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}

// Close closes the underlying store.
func (l *keyLedger) Close() error {
	return l.store.Close()
}

func scanEntry(row *sql.Row) (*domain.LedgerEntry, error) {
	var (
		e         domain.LedgerEntry
		source    string
		indexedAt string
	)
	err := row.Scan(&e.SafeID, &e.OriginalID, &e.Name, &source, &e.Path,
		&e.Fingerprint, &e.Vectorised, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ledger entry: %w", err)
	}

	e.Source = domain.Source(source)
	t, err := time.Parse(time.RFC3339Nano, indexedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing indexed_at %q: %w", indexedAt, err)
	}
	e.IndexedAt = t
	return &e, nil
}
