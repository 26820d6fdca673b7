package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recovery-cli/internal/derive"
	"github.com/sells-group/recovery-cli/internal/model"
)

func jan(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func buildTable(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable()
	add := func(date string, ton, grade, liquid, solid, downtime float64) {
		r := model.NewRow()
		r.Set(model.FieldDate, model.Text(date))
		r.Set(model.FieldTonnage, model.Number(ton))
		r.Set(model.FieldOreGrade, model.Number(grade))
		r.Set(model.FieldTailingsLiquidGold, model.Number(liquid))
		r.Set(model.FieldTailingsSolidGold, model.Number(solid))
		r.Set(model.FieldDowntimeMinutes, model.Number(downtime))
		tbl.Append(r)
	}
	add("2024-01-03", 100, 4, 0.5, 0.5, 10) // rate 0.75, metal 300
	add("2024-01-01", 200, 2, 0, 0, 0)      // rate 1, metal 400
	add("bogus", 50, 1, 0, 0, 5)            // rate 1, metal 50, no date
	partial := model.NewRow()
	partial.Set(model.FieldDate, model.Text("2024-01-02"))
	partial.Set(model.FieldTonnage, model.Number(10))
	tbl.Append(partial)
	return derive.Derive(tbl)
}

func TestTrend_SortsAndFilters(t *testing.T) {
	t.Parallel()

	s, err := Trend(buildTable(t), jan(1), jan(2), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMetrics, s.Metrics)
	require.Len(t, s.Points, 2)
	assert.Equal(t, jan(1), s.Points[0].Date)
	assert.Equal(t, jan(2), s.Points[1].Date)

	v, ok := s.Points[0].Values[model.FieldRecoveryRate].Float()
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.True(t, s.Points[1].Values[model.FieldRecoveryRate].IsMissing())
}

func TestTrend_OpenRange(t *testing.T) {
	t.Parallel()

	s, err := Trend(buildTable(t), time.Time{}, time.Time{}, []string{model.FieldRecoveredMetal})
	require.NoError(t, err)
	require.Len(t, s.Points, 3, "undated rows are excluded")
	assert.Equal(t, jan(3), s.Points[2].Date)
}

func TestTrend_Errors(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t)
	_, err := Trend(tbl, time.Time{}, time.Time{}, []string{"nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")

	_, err = Trend(tbl, jan(5), jan(1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start date")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(buildTable(t))
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 3, s.DerivedRows)
	require.NotNil(t, s.FirstDate)
	require.NotNil(t, s.LastDate)
	assert.Equal(t, jan(1), *s.FirstDate)
	assert.Equal(t, jan(3), *s.LastDate)
	assert.Equal(t, 360.0, s.TotalTonnage)
	assert.Equal(t, 750.0, s.TotalRecoveredMetal)
	assert.Equal(t, 15.0, s.TotalDowntimeMinutes)
	require.NotNil(t, s.MeanRecoveryRate)
	assert.InDelta(t, 2.75/3, *s.MeanRecoveryRate, 1e-12)
	require.NotNil(t, s.WeightedRecoveryRate)
	assert.InDelta(t, 750.0/850.0, *s.WeightedRecoveryRate, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(model.NewTable())
	assert.Equal(t, 0, s.Rows)
	assert.Nil(t, s.MeanRecoveryRate)
	assert.Nil(t, s.WeightedRecoveryRate)
	assert.Nil(t, s.FirstDate)
}
