package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recovery-cli/internal/db"
	"github.com/sells-group/recovery-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ledger_columns (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS ledger_rows (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	cells    JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_rows_position ON ledger_rows(position);
`

// Migrate creates the ledger tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Load reads the stored table in row order.
func (s *PostgresStore) Load(ctx context.Context) (*model.Table, error) {
	colRows, err := s.pool.Query(ctx, `SELECT name FROM ledger_columns ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load columns")
	}
	var columns []string
	for colRows.Next() {
		var name string
		if err := colRows.Scan(&name); err != nil {
			colRows.Close()
			return nil, eris.Wrap(err, "postgres: scan column")
		}
		columns = append(columns, name)
	}
	colRows.Close()
	if err := colRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate columns")
	}

	rows, err := s.pool.Query(ctx, `SELECT id, cells FROM ledger_rows ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load rows")
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var id string
		var cells []byte
		if err := rows.Scan(&id, &cells); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		r, err := decodeRow(id, cells)
		if err != nil {
			return nil, eris.Wrap(err, "postgres")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate rows")
	}
	return assemble(columns, out), nil
}

// Save truncates both tables and reloads them with COPY inside one
// transaction.
func (s *PostgresStore) Save(ctx context.Context, t *model.Table) error {
	colData := make([][]any, len(t.Columns))
	for i, c := range t.Columns {
		colData[i] = []any{int32(i), c}
	}
	rowData := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		cells, err := encodeCells(r)
		if err != nil {
			return eris.Wrap(err, "postgres")
		}
		rowData[i] = []any{r.ID, int32(i), cells}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_rows`); err != nil {
		return eris.Wrap(err, "postgres: clear rows")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_columns`); err != nil {
		return eris.Wrap(err, "postgres: clear columns")
	}
	if _, err := db.CopyFrom(ctx, tx, "ledger_columns", []string{"position", "name"}, colData); err != nil {
		return eris.Wrap(err, "postgres: save columns")
	}
	if _, err := db.CopyFrom(ctx, tx, "ledger_rows", []string{"id", "position", "cells"}, rowData); err != nil {
		return eris.Wrap(err, "postgres: save rows")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}
