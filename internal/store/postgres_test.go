package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recovery-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ledger_columns`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT name FROM ledger_columns`).
		WillReturnRows(pgxmock.NewRows([]string{"name"}))
	mock.ExpectQuery(`SELECT id, cells FROM ledger_rows`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cells"}))

	tbl, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, model.FieldNames(), tbl.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := pgxmock.NewRows([]string{"name"})
	for _, c := range append(model.FieldNames(), "metal_calc") {
		cols.AddRow(c)
	}
	mock.ExpectQuery(`SELECT name FROM ledger_columns`).WillReturnRows(cols)
	mock.ExpectQuery(`SELECT id, cells FROM ledger_rows`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cells"}).
			AddRow("r1", []byte(`{"date":{"date":"2024-02-29"},"tonnage":100,"ore_grade":"2.5","metal_calc":null}`)).
			AddRow("r2", []byte(`{}`)))

	tbl, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "metal_calc", tbl.Columns[len(tbl.Columns)-1])
	assert.Equal(t, "r1", tbl.Rows[0].ID)
	assert.True(t, tbl.Rows[0].Get(model.FieldTonnage).Equal(model.Number(100)))
	assert.True(t, tbl.Rows[0].Get(model.FieldOreGrade).Equal(model.Text("2.5")))
	assert.Equal(t, model.KindDate, tbl.Rows[0].Get(model.FieldDate).Kind())
	assert.True(t, tbl.Rows[1].Get("metal_calc").IsMissing())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadBadJSON(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT name FROM ledger_columns`).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("date"))
	mock.ExpectQuery(`SELECT id, cells FROM ledger_rows`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "cells"}).AddRow("r1", []byte(`{broken`)))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal row r1")
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	tbl := sampleTable()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ledger_rows`).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM ledger_columns`).WillReturnResult(pgxmock.NewResult("DELETE", 14))
	mock.ExpectCopyFrom(pgx.Identifier{"ledger_columns"}, []string{"position", "name"}).
		WillReturnResult(int64(len(tbl.Columns)))
	mock.ExpectCopyFrom(pgx.Identifier{"ledger_rows"}, []string{"id", "position", "cells"}).
		WillReturnResult(int64(tbl.Len()))
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), tbl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ledger_rows`).WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectRollback()

	err := s.Save(context.Background(), sampleTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
