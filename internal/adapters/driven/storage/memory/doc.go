// Package memory holds process-local stores: a ConfigStore for tests and
// environment-only runs, and a KeyLedger used when the SQLite ledger cannot
// be opened.
package memory
