package derive

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/recovery-cli/internal/model"
)

var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"2006-1-2",
	"20060102",
	"2006年1月2日",
	"2006年01月02日",
	"1/2/2006",
	"01/02/2006",
}

// Excel's day zero for the 1900 date system, adjusted for the phantom
// 1900-02-29.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 2958465 // 9999-12-31

func normalizeDate(c model.Cell) model.Cell {
	switch c.Kind() {
	case model.KindDate, model.KindMissing:
		return c
	case model.KindNumber:
		v, _ := c.Float()
		return fromExcelSerial(v)
	default:
		s, _ := c.Raw()
		return ParseDate(s)
	}
}

// ParseDate parses the date formats operators and spreadsheets produce.
// Unparsable input is Missing.
func ParseDate(s string) model.Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Missing()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Date(t)
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return fromExcelSerial(v)
	}
	return model.Missing()
}

func fromExcelSerial(v float64) model.Cell {
	if v < 1 || v > maxExcelSerial || math.IsNaN(v) {
		return model.Missing()
	}
	days := int(math.Floor(v))
	return model.Date(excelEpoch.AddDate(0, 0, days))
}
