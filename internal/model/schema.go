package model

// Canonical field names. The order of Schema is the shared contract between
// the engine, the stores, and every import/export path.
const (
	FieldDate                  = "date"
	FieldTonnage               = "tonnage"
	FieldOreGrade              = "ore_grade"
	FieldTailingsLiquidGrade   = "tailings_liquid_grade"
	FieldTailingsSolidGrade    = "tailings_solid_grade"
	FieldTailingsLiquidGold    = "tailings_liquid_gold"
	FieldTailingsSolidGold     = "tailings_solid_gold"
	FieldOverflowConcentration = "overflow_concentration"
	FieldOverflowFineness      = "overflow_fineness"
	FieldDowntimeMinutes       = "downtime_minutes"
	FieldTailingsGrade         = "tailings_grade"
	FieldRecoveryRate          = "recovery_rate"
	FieldRecoveredMetal        = "recovered_metal"
)

// FieldRole separates measured inputs from computed outputs.
type FieldRole string

const (
	RoleRaw     FieldRole = "raw"
	RoleDerived FieldRole = "derived"
)

// FieldDef describes one canonical column.
type FieldDef struct {
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label" yaml:"label"`
	Unit     string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Kind     CellKind  `json:"-" yaml:"-"`
	Role     FieldRole `json:"role" yaml:"role"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

// Schema is the ordered canonical field list.
var Schema = []FieldDef{
	{Name: FieldDate, Label: "Date", Kind: KindDate, Role: RoleRaw},
	{Name: FieldTonnage, Label: "Ore tonnage", Unit: "t", Kind: KindNumber, Role: RoleRaw, Required: true},
	{Name: FieldOreGrade, Label: "Ore gold grade", Unit: "g/t", Kind: KindNumber, Role: RoleRaw, Required: true},
	{Name: FieldTailingsLiquidGrade, Label: "Tailings liquid grade", Unit: "g/t", Kind: KindNumber, Role: RoleRaw},
	{Name: FieldTailingsSolidGrade, Label: "Tailings solid grade", Unit: "g/t", Kind: KindNumber, Role: RoleRaw},
	{Name: FieldTailingsLiquidGold, Label: "Tailings liquid gold", Unit: "g/t", Kind: KindNumber, Role: RoleRaw, Required: true},
	{Name: FieldTailingsSolidGold, Label: "Tailings solid gold", Unit: "g/t", Kind: KindNumber, Role: RoleRaw, Required: true},
	{Name: FieldOverflowConcentration, Label: "Overflow concentration", Unit: "%", Kind: KindNumber, Role: RoleRaw},
	{Name: FieldOverflowFineness, Label: "Overflow fineness", Unit: "%", Kind: KindNumber, Role: RoleRaw},
	{Name: FieldDowntimeMinutes, Label: "Downtime", Unit: "min", Kind: KindNumber, Role: RoleRaw},
	{Name: FieldTailingsGrade, Label: "Tailings grade", Unit: "g/t", Kind: KindNumber, Role: RoleDerived},
	{Name: FieldRecoveryRate, Label: "Recovery rate", Kind: KindNumber, Role: RoleDerived},
	{Name: FieldRecoveredMetal, Label: "Recovered metal", Unit: "g", Kind: KindNumber, Role: RoleDerived},
}

var schemaIndex = func() map[string]int {
	m := make(map[string]int, len(Schema))
	for i, f := range Schema {
		m[f.Name] = i
	}
	return m
}()

// FieldNames returns the canonical column names in schema order.
func FieldNames() []string {
	names := make([]string, len(Schema))
	for i, f := range Schema {
		names[i] = f.Name
	}
	return names
}

// Field returns the definition of a canonical field.
func Field(name string) (FieldDef, bool) {
	i, ok := schemaIndex[name]
	if !ok {
		return FieldDef{}, false
	}
	return Schema[i], true
}

// IsCanonical reports whether name is one of the schema fields.
func IsCanonical(name string) bool {
	_, ok := schemaIndex[name]
	return ok
}

// IsDerived reports whether name is a computed schema field.
func IsDerived(name string) bool {
	f, ok := Field(name)
	return ok && f.Role == RoleDerived
}

// RawNumericFields returns the measured numeric fields in schema order.
func RawNumericFields() []string {
	var out []string
	for _, f := range Schema {
		if f.Role == RoleRaw && f.Kind == KindNumber {
			out = append(out, f.Name)
		}
	}
	return out
}

// RequiredFields returns the raw fields a row needs before it can be derived.
func RequiredFields() []string {
	var out []string
	for _, f := range Schema {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
