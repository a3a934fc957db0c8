// Package database provides the quote history stores.
//
// Two backends implement writer.Store:
//   - PostgreSQL (pgx pool, batched inserts) for server deployments
//   - SQLite (modernc.org/sqlite, pure Go) for a single desktop user
//
// Both keep one append-only table, quote_history, keyed by
// (symbol_key, cycle_id).
package database
