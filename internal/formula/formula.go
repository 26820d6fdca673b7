// Package formula evaluates user-defined columns written in a closed
// arithmetic grammar: column names, decimal literals, + - * /, and
// parentheses. Nothing else parses, so an expression can only read the
// current row of the table it is applied to.
package formula

import (
	"math"
	"strings"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Program is a compiled expression bound to a column set.
type Program struct {
	expr string
	root node
	refs []string
}

// Compile parses expr, resolving identifiers against columns.
func Compile(expr string, columns []string) (*Program, error) {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	root, refs, err := parse(expr, known)
	if err != nil {
		return nil, err
	}
	return &Program{expr: expr, root: root, refs: refs}, nil
}

// String returns the source expression.
func (p *Program) String() string { return p.expr }

// References lists the columns the expression reads, in first-use order.
func (p *Program) References() []string {
	return append([]string(nil), p.refs...)
}

// EvalRow computes the expression for one row. Missing or non-numeric
// operands, division by zero, and non-finite results are Missing.
func (p *Program) EvalRow(r model.Row) model.Cell {
	v, ok := p.root.eval(func(name string) (float64, bool) {
		return r.Get(name).Float()
	})
	if !ok {
		return model.Missing()
	}
	return model.Number(v)
}

// Evaluate returns a copy of t with column name set to expr evaluated on
// every row. An existing column of that name is overwritten. On failure the
// original table is returned untouched together with an *InvalidError.
func Evaluate(t *model.Table, name, expr string) (*model.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return t, invalid(expr, -1, "column name is empty")
	}
	if t == nil {
		return t, invalid(expr, -1, "no table to evaluate against")
	}

	prog, err := Compile(expr, t.Columns)
	if err != nil {
		return t, err
	}

	results := make([]model.Cell, len(t.Rows))
	for i, r := range t.Rows {
		results[i] = prog.EvalRow(r)
	}

	out := t.Clone()
	out.AddColumn(name)
	for i := range out.Rows {
		out.Rows[i].Set(name, results[i])
	}
	return out, nil
}

func (n *numberNode) eval(func(string) (float64, bool)) (float64, bool) {
	return n.v, true
}

func (n *columnNode) eval(env func(string) (float64, bool)) (float64, bool) {
	return env(n.name)
}

func (n *negNode) eval(env func(string) (float64, bool)) (float64, bool) {
	v, ok := n.x.eval(env)
	return -v, ok
}

func (n *binaryNode) eval(env func(string) (float64, bool)) (float64, bool) {
	l, ok := n.l.eval(env)
	if !ok {
		return 0, false
	}
	r, ok := n.r.eval(env)
	if !ok {
		return 0, false
	}
	var v float64
	switch n.op {
	case tokPlus:
		v = l + r
	case tokMinus:
		v = l - r
	case tokStar:
		v = l * r
	case tokSlash:
		if r == 0 {
			return 0, false
		}
		v = l / r
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
