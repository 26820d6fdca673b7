package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/recovery-cli/internal/model"
	"github.com/sells-group/recovery-cli/internal/report"
)

// compactColumns are shown by list unless --all is given.
var compactColumns = []string{
	model.FieldDate,
	model.FieldTonnage,
	model.FieldOreGrade,
	model.FieldTailingsLiquidGold,
	model.FieldTailingsSolidGold,
	model.FieldDowntimeMinutes,
	model.FieldTailingsGrade,
	model.FieldRecoveryRate,
	model.FieldRecoveredMetal,
}

func formatTable(out io.Writer, t *model.Table, all bool) {
	cols := t.Columns
	if !all {
		cols = append(append([]string(nil), compactColumns...), t.ExtraColumns()...)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(cols)+1)
	rule := make([]string, 0, len(cols)+1)
	header = append(header, "ID")
	rule = append(rule, "--")
	for _, c := range cols {
		h := strings.ToUpper(c)
		header = append(header, h)
		rule = append(rule, strings.Repeat("-", len(h)))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rule, "\t"))

	vals := make([]string, 0, len(cols)+1)
	for _, r := range t.Rows {
		vals = append(vals[:0], truncateID(r.ID))
		for _, c := range cols {
			vals = append(vals, displayCell(c, r.Get(c)))
		}
		_, _ = fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	_ = w.Flush()
}

func formatRow(out io.Writer, r model.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", r.ID)

	cols := model.FieldNames()
	var extra []string
	for c := range r.Cells {
		if !model.IsCanonical(c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	for _, c := range append(cols, extra...) {
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", c, displayCell(c, r.Get(c)))
	}
	_ = w.Flush()
}

func formatTrend(out io.Writer, s *report.Series) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"DATE"}
	for _, m := range s.Metrics {
		header = append(header, strings.ToUpper(m))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range s.Points {
		vals := []string{p.Date.Format(model.DateLayout)}
		for _, m := range s.Metrics {
			vals = append(vals, displayCell(m, p.Values[m]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	_ = w.Flush()
}

func formatSummary(out io.Writer, s report.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	period := "-"
	if s.FirstDate != nil && s.LastDate != nil {
		period = s.FirstDate.Format(model.DateLayout) + " .. " + s.LastDate.Format(model.DateLayout)
	}
	_, _ = fmt.Fprintf(w, "Rows:\t%d (%d with recovery)\n", s.Rows, s.DerivedRows)
	_, _ = fmt.Fprintf(w, "Period:\t%s\n", period)
	_, _ = fmt.Fprintf(w, "Ore processed:\t%s t\n", formatNumber(s.TotalTonnage))
	_, _ = fmt.Fprintf(w, "Metal recovered:\t%s g\n", formatNumber(s.TotalRecoveredMetal))
	_, _ = fmt.Fprintf(w, "Mean recovery:\t%s\n", percentOrDash(s.MeanRecoveryRate))
	_, _ = fmt.Fprintf(w, "Weighted recovery:\t%s\n", percentOrDash(s.WeightedRecoveryRate))
	_, _ = fmt.Fprintf(w, "Downtime:\t%s min\n", formatNumber(s.TotalDowntimeMinutes))
	_ = w.Flush()
}

func formatMapping(out io.Writer, path string, header []string, mapping map[string]string, rows int) {
	_, _ = fmt.Fprintf(out, "%s (%d rows)\n", path, rows)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  HEADER\tFIELD")
	for _, h := range header {
		target := mapping[h]
		if target == "" {
			target = "(dropped)"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", h, target)
	}
	_ = w.Flush()
}

// displayCell renders a cell for terminal output. Missing is "-".
func displayCell(column string, c model.Cell) string {
	if c.IsMissing() {
		return "-"
	}
	if v, ok := c.Float(); ok {
		if column == model.FieldRecoveryRate {
			return formatPercent(v)
		}
		return formatNumber(v)
	}
	return c.String()
}

func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

func percentOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatPercent(*v)
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
