package ingest

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/recovery-cli/internal/model"
)

// builtinAliases maps each canonical field to the headers plant spreadsheets
// use for it. Keys and synonyms are matched after FoldHeader.
var builtinAliases = map[string][]string{
	model.FieldDate:                  {"日期", "day", "sample_date", "record_date", "shift_date"},
	model.FieldTonnage:               {"原矿吨数", "ore_tonnage", "ore_tons", "tons", "tonnes", "throughput", "mill_feed", "feed_tonnage"},
	model.FieldOreGrade:              {"原矿金品位", "原矿品位", "head_grade", "feed_grade", "ore_gold_grade", "gold_grade", "au_grade", "grade"},
	model.FieldTailingsLiquidGrade:   {"尾液品位", "liquid_tailings_grade", "solution_tailings_grade", "tail_liquid_grade"},
	model.FieldTailingsSolidGrade:    {"尾固品位", "solid_tailings_grade", "tail_solid_grade"},
	model.FieldTailingsLiquidGold:    {"尾液含金", "liquid_tailings_gold", "solution_gold", "tail_liquid_gold"},
	model.FieldTailingsSolidGold:     {"尾固含金", "solid_tailings_gold", "tail_solid_gold"},
	model.FieldOverflowConcentration: {"溢流浓度", "overflow_density", "cyclone_overflow_density"},
	model.FieldOverflowFineness:      {"溢流细度", "overflow_grind", "grind_fineness"},
	model.FieldDowntimeMinutes:       {"停机时间", "downtime", "downtime_min", "stoppage_minutes"},
	model.FieldTailingsGrade:         {"尾矿品位", "tail_grade", "tails_grade"},
	model.FieldRecoveryRate:          {"回收率", "recovery"},
	model.FieldRecoveredMetal:        {"回收金属量", "metal_recovered", "recovered_gold", "gold_recovered"},
}

var (
	unitSuffixRe = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]\s*$`)
	separatorRe  = regexp.MustCompile(`[\s\-./]+`)
)

// FoldHeader reduces a header to its lookup key: NFKC (which also narrows
// full-width characters), case folding, a trailing "(unit)" removed, and
// separators collapsed to underscores.
func FoldHeader(h string) string {
	s := strings.TrimPrefix(h, "\ufeff")
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.TrimSpace(s)
	s = unitSuffixRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// Aliases resolves arbitrary headers to canonical field names.
type Aliases struct {
	byKey map[string]string
}

// NewAliases builds the resolver from the built-in table plus extra
// header→canonical pairs. Extra pairs naming an unknown field fail.
func NewAliases(extra map[string]string) (*Aliases, error) {
	a := &Aliases{byKey: make(map[string]string, 64)}
	for _, f := range model.Schema {
		a.byKey[FoldHeader(f.Name)] = f.Name
	}
	for canonical, synonyms := range builtinAliases {
		for _, s := range synonyms {
			a.byKey[FoldHeader(s)] = canonical
		}
	}
	for header, canonical := range extra {
		if err := a.Add(header, canonical); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// DefaultAliases returns the built-in resolver.
func DefaultAliases() *Aliases {
	a, _ := NewAliases(nil)
	return a
}

// Add registers one header synonym.
func (a *Aliases) Add(header, canonical string) error {
	if !model.IsCanonical(canonical) {
		return eris.Errorf("ingest: alias %q targets unknown field %q", header, canonical)
	}
	key := FoldHeader(header)
	if key == "" {
		return eris.Errorf("ingest: empty alias for %q", canonical)
	}
	a.byKey[key] = canonical
	return nil
}

// Resolve returns the canonical name for a header.
func (a *Aliases) Resolve(header string) (string, bool) {
	c, ok := a.byKey[FoldHeader(header)]
	return c, ok
}

// LoadAliasFile reads a YAML document of the form
//
//	ore_grade: [head grade, "Au g/t"]
//	tonnage: [dry tonnes]
//
// and adds every synonym to a.
func (a *Aliases) LoadAliasFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "ingest: read alias file %s", path)
	}
	var doc map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return eris.Wrapf(err, "ingest: parse alias file %s", path)
	}
	for canonical, synonyms := range doc {
		for _, s := range synonyms {
			if err := a.Add(s, canonical); err != nil {
				return err
			}
		}
	}
	return nil
}

// Builtin returns the built-in synonym table, keyed by canonical name.
func Builtin() map[string][]string {
	out := make(map[string][]string, len(builtinAliases))
	for k, v := range builtinAliases {
		out[k] = append([]string(nil), v...)
	}
	return out
}
