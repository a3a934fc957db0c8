package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/stockwatch/internal/config"
	"github.com/rickgao/stockwatch/internal/writer"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS quote_history (
	cycle_id      UUID             NOT NULL,
	symbol_key    TEXT             NOT NULL,
	market        TEXT             NOT NULL,
	code          TEXT             NOT NULL,
	name          TEXT             NOT NULL,
	pre_close     DOUBLE PRECISION NOT NULL,
	price         DOUBLE PRECISION NOT NULL,
	change_rate   DOUBLE PRECISION NOT NULL,
	change_amount DOUBLE PRECISION NOT NULL,
	fetched_at    TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (symbol_key, cycle_id)
);
CREATE INDEX IF NOT EXISTS quote_history_symbol_time ON quote_history (symbol_key, fetched_at DESC);
`

// ConnString builds a postgres:// URL from cfg. Credentials are escaped and
// the pool identifies itself as stockwatch.
func ConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", "stockwatch")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Connect creates a single connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := ConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresStore keeps quote history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the history table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertQuotes inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (s *PostgresStore) InsertQuotes(ctx context.Context, rows []writer.QuoteRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO quote_history (cycle_id, symbol_key, market, code, name, pre_close, price, change_rate, change_amount, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (symbol_key, cycle_id) DO NOTHING
		`, r.CycleID.String(), r.SymbolKey, r.Market, r.Code, r.Name, r.PreClose, r.Price, r.ChangeRate, r.ChangeAmount, r.FetchedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}

// History returns up to limit rows for symbolKey, newest first.
func (s *PostgresStore) History(ctx context.Context, symbolKey string, limit int) ([]writer.QuoteRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cycle_id::text, symbol_key, market, code, name, pre_close, price, change_rate, change_amount, fetched_at
		FROM quote_history
		WHERE symbol_key = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`, symbolKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []writer.QuoteRow
	for rows.Next() {
		var (
			r       writer.QuoteRow
			cycleID string
		)
		if err := rows.Scan(&cycleID, &r.SymbolKey, &r.Market, &r.Code, &r.Name,
			&r.PreClose, &r.Price, &r.ChangeRate, &r.ChangeAmount, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if r.CycleID, err = uuid.Parse(cycleID); err != nil {
			return nil, fmt.Errorf("parse cycle id: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Ping verifies the connection is healthy.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
