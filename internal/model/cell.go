package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the canonical textual form of a date cell.
const DateLayout = "2006-01-02"

// CellKind identifies what a Cell holds.
type CellKind uint8

const (
	KindMissing CellKind = iota
	KindNumber
	KindDate
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a nullable table value. The zero value is Missing.
//
// Text cells hold raw input (from an import or an edit) that has not been
// coerced yet; derivation turns them into numbers, dates, or Missing.
type Cell struct {
	kind CellKind
	num  float64
	date time.Time
	text string
}

// Missing returns the explicit absence-of-data marker.
func Missing() Cell { return Cell{} }

// Number returns a numeric cell. NaN and infinities collapse to Missing.
func Number(v float64) Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Cell{}
	}
	return Cell{kind: KindNumber, num: v}
}

// Date returns a date cell truncated to day precision in UTC.
func Date(t time.Time) Cell {
	if t.IsZero() {
		return Cell{}
	}
	y, m, d := t.Date()
	return Cell{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Text returns a raw text cell. An empty string is Missing.
func Text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Kind reports what the cell holds.
func (c Cell) Kind() CellKind { return c.kind }

// IsMissing reports whether the cell carries no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Float returns the numeric value and whether the cell is a number.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Time returns the date value and whether the cell is a date.
func (c Cell) Time() (time.Time, bool) {
	if c.kind != KindDate {
		return time.Time{}, false
	}
	return c.date, true
}

// Raw returns the unparsed text and whether the cell is text.
func (c Cell) Raw() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// String renders the cell for display and CSV output. Missing is "".
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindDate:
		return c.date.Format(DateLayout)
	case KindText:
		return c.text
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindNumber:
		return c.num == o.num
	case KindDate:
		return c.date.Equal(o.date)
	case KindText:
		return c.text == o.text
	default:
		return true
	}
}

type dateJSON struct {
	Date string `json:"date"`
}

// MarshalJSON encodes Missing as null, numbers as numbers, text as strings
// and dates as {"date":"YYYY-MM-DD"}.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		return json.Marshal(c.num)
	case KindDate:
		return json.Marshal(dateJSON{Date: c.date.Format(DateLayout)})
	case KindText:
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Missing()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode text cell")
		}
		*c = Text(s)
	case '{':
		var d dateJSON
		if err := json.Unmarshal(data, &d); err != nil {
			return eris.Wrap(err, "model: decode date cell")
		}
		t, err := time.Parse(DateLayout, d.Date)
		if err != nil {
			return eris.Wrapf(err, "model: parse date cell %q", d.Date)
		}
		*c = Date(t)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return eris.Wrap(err, "model: decode number cell")
		}
		*c = Number(f)
	}
	return nil
}
