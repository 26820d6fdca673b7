// Package ledger runs one read-derive-merge-write cycle per user action.
// The CLI and the HTTP API both go through a Service.
package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recovery-cli/internal/derive"
	"github.com/sells-group/recovery-cli/internal/formula"
	"github.com/sells-group/recovery-cli/internal/ingest"
	"github.com/sells-group/recovery-cli/internal/model"
	"github.com/sells-group/recovery-cli/internal/store"
)

// ErrNotFound is returned when a row ID does not exist.
var ErrNotFound = eris.New("ledger: row not found")

// ErrUnknownField is returned for entry keys that name no column.
var ErrUnknownField = eris.New("ledger: unknown field")

// ErrDerivedField is returned when Add is given a computed field.
var ErrDerivedField = eris.New("ledger: derived field cannot be entered")

// Service serializes actions against a Store.
type Service struct {
	store   store.Store
	aliases *ingest.Aliases

	mu sync.Mutex
}

// New creates a Service. A nil aliases uses the built-in header aliases for
// resolving Add keys.
func New(st store.Store, aliases *ingest.Aliases) *Service {
	if aliases == nil {
		aliases = ingest.DefaultAliases()
	}
	return &Service{store: st, aliases: aliases}
}

// Add appends one manually entered row. Keys may be canonical names,
// existing user columns or header aliases. Derived fields cannot be entered.
func (s *Service) Add(ctx context.Context, entry map[string]string) (model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return model.Row{}, eris.Wrap(err, "ledger: add")
	}

	row := model.NewRow()
	for _, key := range sortedKeys(entry) {
		col, ok := s.resolve(t, key)
		if !ok {
			return model.Row{}, eris.Wrapf(ErrUnknownField, "ledger: add: %q", key)
		}
		if model.IsDerived(col) {
			return model.Row{}, eris.Wrapf(ErrDerivedField, "ledger: add: %s", col)
		}
		row.Set(col, cellFor(col, entry[key]))
	}

	t.Append(row)
	out, stats := derive.DeriveWithStats(t)
	if err := s.store.Save(ctx, out); err != nil {
		return model.Row{}, eris.Wrap(err, "ledger: add")
	}

	added := out.Rows[out.Index(row.ID)]
	zap.L().Info("ledger: row added",
		zap.String("row_id", row.ID),
		zap.Int("fields", len(entry)),
		zap.Int("rows", stats.Rows),
	)
	return added, nil
}

// Import appends every row of the given tables, keeping their order.
func (s *Service) Import(ctx context.Context, tables ...*model.Table) (derive.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return derive.Stats{}, eris.Wrap(err, "ledger: import")
	}

	var added int
	for _, in := range tables {
		if in == nil {
			continue
		}
		for _, r := range in.Rows {
			r = r.Clone()
			if r.ID == "" || t.Index(r.ID) >= 0 {
				r.ID = model.NewRow().ID
			}
			t.Append(r)
			added++
		}
	}

	out, stats := derive.DeriveWithStats(t)
	if err := s.store.Save(ctx, out); err != nil {
		return stats, eris.Wrap(err, "ledger: import")
	}

	zap.L().Info("ledger: rows imported",
		zap.Int("tables", len(tables)),
		zap.Int("added", added),
		zap.Int("rows", stats.Rows),
		zap.Int("computed", stats.Computed),
		zap.Int("incomplete", stats.Incomplete),
		zap.Int("bad_dates", stats.BadDates),
	)
	return stats, nil
}

// Edit overwrites cells of one row in place. Any column may be edited,
// including derived and formula columns; derived fields are recomputed
// afterwards when the row has all inputs.
func (s *Service) Edit(ctx context.Context, rowID string, changes map[string]string) (model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return model.Row{}, eris.Wrap(err, "ledger: edit")
	}

	i := t.Index(rowID)
	if i < 0 {
		return model.Row{}, eris.Wrapf(ErrNotFound, "ledger: edit: %s", rowID)
	}
	for _, col := range sortedKeys(changes) {
		if !t.HasColumn(col) {
			return model.Row{}, eris.Wrapf(ErrUnknownField, "ledger: edit: %q", col)
		}
		t.Rows[i].Set(col, cellFor(col, changes[col]))
	}

	out, _ := derive.DeriveWithStats(t)
	if err := s.store.Save(ctx, out); err != nil {
		return model.Row{}, eris.Wrap(err, "ledger: edit")
	}

	zap.L().Info("ledger: row edited",
		zap.String("row_id", rowID),
		zap.Int("cells", len(changes)),
	)
	return out.Rows[i], nil
}

// Remove deletes rows by ID. If any ID is unknown nothing is removed.
func (s *Service) Remove(ctx context.Context, rowIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return eris.Wrap(err, "ledger: remove")
	}

	drop := make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		if t.Index(id) < 0 {
			return eris.Wrapf(ErrNotFound, "ledger: remove: %s", id)
		}
		drop[id] = true
	}

	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	t.Rows = kept

	out, stats := derive.DeriveWithStats(t)
	if err := s.store.Save(ctx, out); err != nil {
		return eris.Wrap(err, "ledger: remove")
	}

	zap.L().Info("ledger: rows removed",
		zap.Int("removed", len(drop)),
		zap.Int("rows", stats.Rows),
	)
	return nil
}

// AddFormula evaluates expr over the derived table and stores the result
// as column name. A rejected formula is returned as a *formula.InvalidError
// and nothing is written.
func (s *Service) AddFormula(ctx context.Context, name, expr string) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: formula")
	}

	out, err := formula.Evaluate(derive.Derive(t), name, expr)
	if err != nil {
		zap.L().Warn("ledger: formula rejected",
			zap.String("column", name),
			zap.String("expr", expr),
			zap.Error(err),
		)
		return nil, err
	}
	if err := s.store.Save(ctx, out); err != nil {
		return nil, eris.Wrap(err, "ledger: formula")
	}

	zap.L().Info("ledger: formula column stored",
		zap.String("column", strings.TrimSpace(name)),
		zap.String("expr", expr),
		zap.Int("rows", out.Len()),
	)
	return out, nil
}

// Recompute re-derives the stored table and writes it back.
func (s *Service) Recompute(ctx context.Context) (derive.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return derive.Stats{}, eris.Wrap(err, "ledger: recompute")
	}
	out, stats := derive.DeriveWithStats(t)
	if err := s.store.Save(ctx, out); err != nil {
		return stats, eris.Wrap(err, "ledger: recompute")
	}

	zap.L().Info("ledger: recomputed",
		zap.Int("rows", stats.Rows),
		zap.Int("computed", stats.Computed),
		zap.Int("incomplete", stats.Incomplete),
		zap.Int("clamped", stats.Clamped),
		zap.Int("zero_grade", stats.ZeroGrade),
	)
	return stats, nil
}

// Table loads and derives the table for viewing. Nothing is saved.
func (s *Service) Table(ctx context.Context) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: load")
	}
	return derive.Derive(t), nil
}

func (s *Service) resolve(t *model.Table, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if t.HasColumn(key) {
		return key, true
	}
	return s.aliases.Resolve(key)
}

// cellFor turns user input into a cell. Raw fields and dates stay text and
// are coerced by derivation; other columns hold numbers when the input
// parses as one.
func cellFor(column, value string) model.Cell {
	value = strings.TrimSpace(value)
	if column == model.FieldDate {
		return model.Text(value)
	}
	if f, ok := model.Field(column); ok && f.Role == model.RoleRaw {
		return model.Text(value)
	}
	if n := derive.ParseNumber(value); !n.IsMissing() {
		return n
	}
	return model.Text(value)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
