// Package report builds date-ranged views and production summaries over a
// derived table.
package report

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recovery-cli/internal/model"
)

// DefaultMetrics are shown when the caller selects none.
var DefaultMetrics = []string{model.FieldTonnage, model.FieldRecoveryRate}

// Point is one dated row projected onto the selected metrics.
type Point struct {
	Date   time.Time             `json:"date"`
	Values map[string]model.Cell `json:"values"`
}

// Series is the result of Trend.
type Series struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Metrics []string  `json:"metrics"`
	Points  []Point   `json:"points"`
}

// Trend returns rows dated within [from, to] (inclusive, day precision),
// sorted by date. A zero from or to leaves that end open. Rows without a
// valid date are excluded.
func Trend(t *model.Table, from, to time.Time, metrics []string) (*Series, error) {
	if len(metrics) == 0 {
		metrics = DefaultMetrics
	}
	for _, m := range metrics {
		if m == model.FieldDate || !t.HasColumn(m) {
			return nil, eris.Errorf("report: unknown metric %q", m)
		}
	}
	from, to = day(from), day(to)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, eris.Errorf("report: end date %s before start date %s",
			to.Format(model.DateLayout), from.Format(model.DateLayout))
	}

	s := &Series{From: from, To: to, Metrics: append([]string(nil), metrics...)}
	for _, r := range t.SortedByDate().Rows {
		d, ok := r.Get(model.FieldDate).Time()
		if !ok {
			continue
		}
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		p := Point{Date: d, Values: make(map[string]model.Cell, len(metrics))}
		for _, m := range metrics {
			p.Values[m] = r.Get(m)
		}
		s.Points = append(s.Points, p)
	}
	return s, nil
}

// Summary aggregates production over a table. Missing values are skipped
// per metric.
type Summary struct {
	Rows                int        `json:"rows"`
	DerivedRows         int        `json:"derived_rows"`
	FirstDate           *time.Time `json:"first_date,omitempty"`
	LastDate            *time.Time `json:"last_date,omitempty"`
	TotalTonnage        float64    `json:"total_tonnage"`
	TotalRecoveredMetal float64    `json:"total_recovered_metal"`
	MeanRecoveryRate    *float64   `json:"mean_recovery_rate,omitempty"`
	// WeightedRecoveryRate is recovered metal over contained metal for rows
	// where both are known.
	WeightedRecoveryRate *float64 `json:"weighted_recovery_rate,omitempty"`
	TotalDowntimeMinutes float64  `json:"total_downtime_minutes"`
}

// Summarize computes a Summary.
func Summarize(t *model.Table) Summary {
	s := Summary{Rows: t.Len()}

	var rateSum float64
	var rateN int
	var contained, recovered float64

	for _, r := range t.Rows {
		if d, ok := r.Get(model.FieldDate).Time(); ok {
			if s.FirstDate == nil || d.Before(*s.FirstDate) {
				s.FirstDate = &d
			}
			if s.LastDate == nil || d.After(*s.LastDate) {
				s.LastDate = &d
			}
		}
		ton, tonOK := r.Get(model.FieldTonnage).Float()
		if tonOK {
			s.TotalTonnage += ton
		}
		metal, metalOK := r.Get(model.FieldRecoveredMetal).Float()
		if metalOK {
			s.TotalRecoveredMetal += metal
		}
		if v, ok := r.Get(model.FieldDowntimeMinutes).Float(); ok {
			s.TotalDowntimeMinutes += v
		}
		rate, rateOK := r.Get(model.FieldRecoveryRate).Float()
		if rateOK {
			s.DerivedRows++
			rateSum += rate
			rateN++
		}
		grade, gradeOK := r.Get(model.FieldOreGrade).Float()
		if tonOK && gradeOK && metalOK {
			contained += ton * grade
			recovered += metal
		}
	}

	if rateN > 0 {
		mean := rateSum / float64(rateN)
		s.MeanRecoveryRate = &mean
	}
	if contained != 0 {
		w := recovered / contained
		s.WeightedRecoveryRate = &w
	}
	return s
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
