//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/recovery-cli/internal/model"
	"github.com/sells-group/recovery-cli/internal/report"
)

func TestFormatTable_Compact(t *testing.T) {
	tbl := model.NewTable()
	tbl.AddColumn("metal_calc")
	r := model.NewRow()
	r.ID = "abc12345-6789-0000-0000-000000000000"
	r.Set(model.FieldDate, model.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	r.Set(model.FieldTonnage, model.Number(100))
	r.Set(model.FieldRecoveryRate, model.Number(0.96))
	r.Set(model.FieldOverflowFineness, model.Number(72))
	r.Set("metal_calc", model.Number(192))
	tbl.Append(r)

	var buf bytes.Buffer
	formatTable(&buf, tbl, false)
	output := buf.String()

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "RECOVERY_RATE")
	assert.Contains(t, output, "METAL_CALC")
	assert.NotContains(t, output, "OVERFLOW_FINENESS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "2024-03-01")
	assert.Contains(t, output, "96.00%")
	assert.Contains(t, output, "192")

	buf.Reset()
	formatTable(&buf, tbl, true)
	assert.Contains(t, buf.String(), "OVERFLOW_FINENESS")
}

func TestFormatSummary(t *testing.T) {
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	rate := 0.9123
	s := report.Summary{
		Rows:                 31,
		DerivedRows:          30,
		FirstDate:            &first,
		LastDate:             &last,
		TotalTonnage:         3100,
		TotalRecoveredMetal:  5600.5,
		MeanRecoveryRate:     &rate,
		TotalDowntimeMinutes: 45,
	}

	var buf bytes.Buffer
	formatSummary(&buf, s)
	output := buf.String()

	assert.Contains(t, output, "31 (30 with recovery)")
	assert.Contains(t, output, "2024-03-01 .. 2024-03-31")
	assert.Contains(t, output, "3100 t")
	assert.Contains(t, output, "5600.5 g")
	assert.Contains(t, output, "91.23%")
	assert.Contains(t, output, "Weighted recovery:")
	assert.Contains(t, output, "45 min")
}

func TestFormatTrend(t *testing.T) {
	s := &report.Series{
		Metrics: []string{model.FieldTonnage, model.FieldRecoveryRate},
		Points: []report.Point{
			{
				Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Values: map[string]model.Cell{
					model.FieldTonnage:      model.Number(100),
					model.FieldRecoveryRate: model.Missing(),
				},
			},
		},
	}

	var buf bytes.Buffer
	formatTrend(&buf, s)
	output := buf.String()
	assert.Contains(t, output, "DATE")
	assert.Contains(t, output, "TONNAGE")
	assert.Contains(t, output, "2024-03-01")
	assert.Contains(t, output, "-")
}

func TestDisplayCell(t *testing.T) {
	tests := []struct {
		column string
		cell   model.Cell
		want   string
	}{
		{model.FieldTonnage, model.Missing(), "-"},
		{model.FieldTonnage, model.Number(100), "100"},
		{model.FieldTailingsGrade, model.Number(0.05 + 0.03), "0.08"},
		{model.FieldRecoveryRate, model.Number(1), "100.00%"},
		{model.FieldDowntimeMinutes, model.Text("n/a"), "n/a"},
		{model.FieldDate, model.Date(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), "2024-02-29"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, displayCell(tt.column, tt.cell), tt.column)
	}
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"tonnage=100", "note=a=b", "ore_grade="})
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"tonnage": "100", "note": "a=b", "ore_grade": ""}, got)

	_, err = parseAssignments([]string{"tonnage"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=5"})
	assert.Error(t, err)
}
