package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/recovery-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ledger_columns (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS ledger_rows (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	cells    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_rows_position ON ledger_rows(position);
`

// Migrate creates the ledger tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the stored table in row order.
func (s *SQLiteStore) Load(ctx context.Context) (*model.Table, error) {
	colRows, err := s.db.QueryContext(ctx, `SELECT name FROM ledger_columns ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load columns")
	}
	defer colRows.Close()

	var columns []string
	for colRows.Next() {
		var name string
		if err := colRows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column")
		}
		columns = append(columns, name)
	}
	if err := colRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate columns")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, cells FROM ledger_rows ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load rows")
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var id, cells string
		if err := rows.Scan(&id, &cells); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		r, err := decodeRow(id, []byte(cells))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate rows")
	}
	return assemble(columns, out), nil
}

// Save replaces the stored table in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, t *model.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{`DELETE FROM ledger_rows`, `DELETE FROM ledger_columns`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return eris.Wrap(err, "sqlite: clear table")
		}
	}

	colStmt, err := tx.PrepareContext(ctx, `INSERT INTO ledger_columns (position, name) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare column insert")
	}
	defer colStmt.Close()
	for i, c := range t.Columns {
		if _, err := colStmt.ExecContext(ctx, i, c); err != nil {
			return eris.Wrapf(err, "sqlite: insert column %s", c)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO ledger_rows (id, position, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare row insert")
	}
	defer rowStmt.Close()
	for i, r := range t.Rows {
		cells, err := encodeCells(r)
		if err != nil {
			return eris.Wrap(err, "sqlite")
		}
		if _, err := rowStmt.ExecContext(ctx, r.ID, i, string(cells)); err != nil {
			return eris.Wrapf(err, "sqlite: insert row %s", r.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
