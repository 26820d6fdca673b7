// Package derive computes tailings grade, recovery rate and recovered metal
// from the raw daily measurements.
package derive

import (
	"strconv"
	"strings"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Stats summarizes one derivation pass.
type Stats struct {
	Rows       int `json:"rows"`
	Computed   int `json:"computed"`
	Incomplete int `json:"incomplete"`
	Clamped    int `json:"clamped"`
	ZeroGrade  int `json:"zero_grade"`
	BadDates   int `json:"bad_dates"`
}

// Derive returns a copy of t with raw fields coerced, dates normalized and
// derived fields recomputed for every row that has all required inputs.
// Rows missing an input keep whatever derived values they already had.
func Derive(t *model.Table) *model.Table {
	out, _ := DeriveWithStats(t)
	return out
}

// DeriveWithStats is Derive plus counters for logging.
func DeriveWithStats(t *model.Table) (*model.Table, Stats) {
	if t == nil {
		return model.NewTable(), Stats{}
	}

	out := t.Clone()
	out.Fill()

	stats := Stats{Rows: len(out.Rows)}
	numeric := model.RawNumericFields()

	for i := range out.Rows {
		row := &out.Rows[i]

		for _, f := range numeric {
			row.Set(f, coerceNumber(row.Get(f)))
		}

		date := row.Get(model.FieldDate)
		norm := normalizeDate(date)
		if !date.IsMissing() && norm.IsMissing() {
			stats.BadDates++
		}
		row.Set(model.FieldDate, norm)

		in, ok := inputsOf(*row)
		if !ok {
			stats.Incomplete++
			continue
		}
		stats.Computed++

		res := compute(in)
		if res.clamped {
			stats.Clamped++
		}
		if in.oreGrade == 0 {
			stats.ZeroGrade++
		}
		row.Set(model.FieldTailingsGrade, res.tailingsGrade)
		if res.rateDefined {
			row.Set(model.FieldRecoveryRate, res.recoveryRate)
			row.Set(model.FieldRecoveredMetal, res.recoveredMetal)
		}
	}

	return out, stats
}

type inputs struct {
	tonnage    float64
	oreGrade   float64
	liquidGold float64
	solidGold  float64
}

type result struct {
	tailingsGrade  model.Cell
	recoveryRate   model.Cell
	recoveredMetal model.Cell
	rateDefined    bool
	clamped        bool
}

func inputsOf(r model.Row) (inputs, bool) {
	var in inputs
	var ok bool
	if in.tonnage, ok = r.Get(model.FieldTonnage).Float(); !ok {
		return in, false
	}
	if in.oreGrade, ok = r.Get(model.FieldOreGrade).Float(); !ok {
		return in, false
	}
	if in.liquidGold, ok = r.Get(model.FieldTailingsLiquidGold).Float(); !ok {
		return in, false
	}
	if in.solidGold, ok = r.Get(model.FieldTailingsSolidGold).Float(); !ok {
		return in, false
	}
	return in, true
}

func compute(in inputs) result {
	tg := in.liquidGold + in.solidGold
	res := result{tailingsGrade: model.Number(tg)}

	// Rate is undefined without head grade; metal depends on the rate. The
	// row is incomplete for both, so prior values are kept.
	if in.oreGrade == 0 {
		return res
	}

	rate := (in.oreGrade - tg) / in.oreGrade
	switch {
	case rate < 0:
		rate, res.clamped = 0, true
	case rate > 1:
		rate, res.clamped = 1, true
	}
	res.rateDefined = true
	res.recoveryRate = model.Number(rate)
	res.recoveredMetal = model.Number(in.tonnage * in.oreGrade * rate)
	return res
}

// coerceNumber turns text into a number. Anything unparsable, and any date,
// becomes Missing.
func coerceNumber(c model.Cell) model.Cell {
	switch c.Kind() {
	case model.KindNumber, model.KindMissing:
		return c
	case model.KindText:
		s, _ := c.Raw()
		return ParseNumber(s)
	default:
		return model.Missing()
	}
}

// ParseNumber parses a decimal value the way a raw field is coerced. Hex
// literals are not numbers here.
func ParseNumber(s string) model.Cell {
	s = strings.TrimSpace(s)
	if s == "" || isHex(s) {
		return model.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing()
	}
	return model.Number(v)
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
