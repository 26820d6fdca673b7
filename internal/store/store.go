// Package store persists the measurement table.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Store loads and saves the whole table. A fresh store loads an empty
// table with the canonical columns. Save replaces everything; a single
// writer is assumed and the last write wins.
type Store interface {
	Load(ctx context.Context) (*model.Table, error)
	Save(ctx context.Context, t *model.Table) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func encodeCells(r model.Row) ([]byte, error) {
	b, err := json.Marshal(r.Cells)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal row %s", r.ID)
	}
	return b, nil
}

func decodeRow(id string, data []byte) (model.Row, error) {
	r := model.Row{ID: id, Cells: make(map[string]model.Cell)}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.Cells); err != nil {
		return r, eris.Wrapf(err, "unmarshal row %s", id)
	}
	return r, nil
}

// assemble builds a table from stored parts, falling back to the canonical
// columns when nothing was ever saved.
func assemble(columns []string, rows []model.Row) *model.Table {
	t := model.NewTable()
	if len(columns) > 0 {
		t.Columns = columns
	}
	t.Rows = rows
	t.Fill()
	return t
}
