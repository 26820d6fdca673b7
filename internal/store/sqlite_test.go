package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recovery-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleTable() *model.Table {
	tbl := model.NewTable()
	tbl.AddColumn("metal_calc")

	a := model.NewRow()
	a.Set(model.FieldDate, model.Date(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	a.Set(model.FieldTonnage, model.Number(100))
	a.Set(model.FieldOreGrade, model.Text("2.5"))
	a.Set("metal_calc", model.Number(192))

	b := model.NewRow()
	b.Set(model.FieldDowntimeMinutes, model.Text("see log"))

	tbl.Append(a, b)
	return tbl
}

func TestSQLite_LoadEmpty(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)

	tbl, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, model.FieldNames(), tbl.Columns)
}

func TestSQLite_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	in := sampleTable()
	require.NoError(t, st.Save(ctx, in))

	out, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "loaded table differs from saved table")
	assert.Equal(t, model.KindDate, out.Rows[0].Get(model.FieldDate).Kind())
	assert.Equal(t, model.KindText, out.Rows[0].Get(model.FieldOreGrade).Kind())
}

func TestSQLite_SaveReplaces(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleTable()))

	smaller := model.NewTable()
	r := model.NewRow()
	r.Set(model.FieldTonnage, model.Number(1))
	smaller.Append(r)
	require.NoError(t, st.Save(ctx, smaller))

	out, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.False(t, out.HasColumn("metal_calc"))
	assert.Equal(t, r.ID, out.Rows[0].ID)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	t.Parallel()
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Save(ctx, sampleTable()))
	require.NoError(t, st.Close())

	st, err = NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	out, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}
