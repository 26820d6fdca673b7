package model

import (
	"sort"

	"github.com/google/uuid"
)

// Row is one measurement day. ID is stable across edits and recomputation.
type Row struct {
	ID    string          `json:"id"`
	Cells map[string]Cell `json:"cells"`
}

// NewRow returns an empty row with a fresh ID.
func NewRow() Row {
	return Row{ID: uuid.New().String(), Cells: make(map[string]Cell)}
}

// Get returns the cell for column, or Missing when absent.
func (r Row) Get(column string) Cell {
	return r.Cells[column]
}

// Set assigns a cell, allocating the map if needed.
func (r *Row) Set(column string, c Cell) {
	if r.Cells == nil {
		r.Cells = make(map[string]Cell)
	}
	r.Cells[column] = c
}

// Clone deep copies the row.
func (r Row) Clone() Row {
	cells := make(map[string]Cell, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{ID: r.ID, Cells: cells}
}

// Table is an ordered sequence of rows sharing a column list. Columns always
// begin with the canonical schema followed by user-defined columns.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable returns an empty table with the canonical columns.
func NewTable() *Table {
	return &Table{Columns: FieldNames()}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether column is part of the table.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// AddColumn appends column if it is not present yet and fills it with Missing.
func (t *Table) AddColumn(column string) {
	if t.HasColumn(column) {
		return
	}
	t.Columns = append(t.Columns, column)
	for i := range t.Rows {
		if _, ok := t.Rows[i].Cells[column]; !ok {
			t.Rows[i].Set(column, Missing())
		}
	}
}

// ExtraColumns returns the non-canonical columns in table order.
func (t *Table) ExtraColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if !IsCanonical(c) {
			out = append(out, c)
		}
	}
	return out
}

// Append adds rows, materializing every table column on each of them.
func (t *Table) Append(rows ...Row) {
	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Cells == nil {
			r.Cells = make(map[string]Cell, len(t.Columns))
		}
		t.Rows = append(t.Rows, r)
	}
	t.Fill()
}

// Fill makes every row carry an explicit cell for every column and ensures
// the canonical columns lead in schema order.
func (t *Table) Fill() {
	t.Columns = orderColumns(t.Columns)
	for i := range t.Rows {
		if t.Rows[i].Cells == nil {
			t.Rows[i].Cells = make(map[string]Cell, len(t.Columns))
		}
		for _, c := range t.Columns {
			if _, ok := t.Rows[i].Cells[c]; !ok {
				t.Rows[i].Cells[c] = Missing()
			}
		}
	}
}

// Index returns the position of the row with the given ID, or -1.
func (t *Table) Index(id string) int {
	for i, r := range t.Rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Clone deep copies the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Equal compares columns, row order, IDs and every cell.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if t.Rows[i].ID != o.Rows[i].ID {
			return false
		}
		for _, c := range t.Columns {
			if !t.Rows[i].Get(c).Equal(o.Rows[i].Get(c)) {
				return false
			}
		}
	}
	return true
}

// SortedByDate returns a copy ordered by date ascending. Rows without a date
// go last; ties keep insertion order.
func (t *Table) SortedByDate() *Table {
	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		di, iok := out.Rows[i].Get(FieldDate).Time()
		dj, jok := out.Rows[j].Get(FieldDate).Time()
		switch {
		case iok && jok:
			return di.Before(dj)
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

func orderColumns(cols []string) []string {
	out := FieldNames()
	seen := make(map[string]bool, len(cols)+len(out))
	for _, c := range out {
		seen[c] = true
	}
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
