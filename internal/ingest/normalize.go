// Package ingest turns externally authored spreadsheets into canonical
// tables: it reads CSV and XLSX files and maps their headers onto the
// schema.
package ingest

import (
	"strings"

	"github.com/sells-group/recovery-cli/internal/model"
)

// Normalize maps header onto canonical columns and builds one row per
// record. Unknown headers are dropped; canonical columns the file lacks are
// filled with Missing; the output column order is always the schema order.
// When two headers resolve to the same field the first one wins.
func Normalize(header []string, rows [][]string, aliases *Aliases) *model.Table {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	targets := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		canonical, ok := aliases.Resolve(h)
		if !ok || taken[canonical] {
			continue
		}
		taken[canonical] = true
		targets[i] = canonical
	}

	t := model.NewTable()
	for _, rec := range rows {
		if blank(rec) {
			continue
		}
		row := model.NewRow()
		for i, v := range rec {
			if i >= len(targets) || targets[i] == "" {
				continue
			}
			row.Set(targets[i], model.Text(strings.TrimSpace(v)))
		}
		t.Append(row)
	}
	return t
}

// Mapping reports, for each input header, the canonical field it resolves
// to ("" when dropped).
func Mapping(header []string, aliases *Aliases) map[string]string {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	out := make(map[string]string, len(header))
	for _, h := range header {
		c, _ := aliases.Resolve(h)
		out[h] = c
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
