package formula

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrInvalid is the sentinel matched by every formula rejection.
var ErrInvalid = eris.New("formula invalid")

// InvalidError reports why an expression was rejected. Pos is the byte
// offset into the expression, or -1 when the problem is not positional.
type InvalidError struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *InvalidError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("formula invalid: %s (at offset %d)", e.Reason, e.Pos)
	}
	return "formula invalid: " + e.Reason
}

// Is makes errors.Is(err, ErrInvalid) succeed for any InvalidError.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(expr string, pos int, format string, args ...any) *InvalidError {
	return &InvalidError{Expr: expr, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}
