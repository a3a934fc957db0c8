package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/rickgao/stockwatch/internal/writer"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS quote_history (
	cycle_id      TEXT    NOT NULL,
	symbol_key    TEXT    NOT NULL,
	market        TEXT    NOT NULL,
	code          TEXT    NOT NULL,
	name          TEXT    NOT NULL,
	pre_close     REAL    NOT NULL,
	price         REAL    NOT NULL,
	change_rate   REAL    NOT NULL,
	change_amount REAL    NOT NULL,
	fetched_at    INTEGER NOT NULL,
	PRIMARY KEY (symbol_key, cycle_id)
);
CREATE INDEX IF NOT EXISTS quote_history_symbol_time ON quote_history (symbol_key, fetched_at DESC);
`

// SQLiteStore keeps quote history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is
// accepted for tests. A leading "~/" is expanded.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if err := configureSQLite(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// configureSQLite sets SQLite PRAGMA options.
func configureSQLite(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// InsertQuotes inserts rows in one transaction with INSERT OR IGNORE.
func (s *SQLiteStore) InsertQuotes(ctx context.Context, rows []writer.QuoteRow) (conflicts int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO quote_history (cycle_id, symbol_key, market, code, name, pre_close, price, change_rate, change_amount, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		res, err := stmt.ExecContext(ctx, r.CycleID.String(), r.SymbolKey, r.Market, r.Code, r.Name,
			r.PreClose, r.Price, r.ChangeRate, r.ChangeAmount, r.FetchedAt.UnixMicro())
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.SymbolKey, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			conflicts++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return conflicts, nil
}

// History returns up to limit rows for symbolKey, newest first.
func (s *SQLiteStore) History(ctx context.Context, symbolKey string, limit int) ([]writer.QuoteRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle_id, symbol_key, market, code, name, pre_close, price, change_rate, change_amount, fetched_at
		FROM quote_history
		WHERE symbol_key = ?
		ORDER BY fetched_at DESC
		LIMIT ?
	`, symbolKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []writer.QuoteRow
	for rows.Next() {
		var (
			r         writer.QuoteRow
			cycleID   string
			fetchedAt int64
		)
		if err := rows.Scan(&cycleID, &r.SymbolKey, &r.Market, &r.Code, &r.Name,
			&r.PreClose, &r.Price, &r.ChangeRate, &r.ChangeAmount, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if r.CycleID, err = uuid.Parse(cycleID); err != nil {
			return nil, fmt.Errorf("parse cycle id: %w", err)
		}
		r.FetchedAt = time.UnixMicro(fetchedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
