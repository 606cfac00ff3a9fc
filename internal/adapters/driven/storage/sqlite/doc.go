// Package sqlite keeps the key ledger in a local SQLite database.
//
// The ledger maps each index key to the original identifier it was derived
// from, with the content fingerprint and write time of the last successful
// upsert. It is the only way back from a key to its identifier, since keys
// are never decoded.
//
// The database lives at ~/.docspace/data/ledger.db by default and is opened
// in WAL mode through modernc.org/sqlite. Schema changes are numbered
// migrations under migrations/, applied in order inside a transaction.
package sqlite
