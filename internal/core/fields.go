package core

import "strings"

// Field names a user-editable lead attribute. The value is the JSON and CSV
// name of the attribute.
type Field string

const (
	FieldFullName     Field = "fullName"
	FieldEmail        Field = "email"
	FieldPhone        Field = "phone"
	FieldCity         Field = "city"
	FieldPropertyType Field = "propertyType"
	FieldBHK          Field = "bhk"
	FieldPurpose      Field = "purpose"
	FieldBudgetMin    Field = "budgetMin"
	FieldBudgetMax    Field = "budgetMax"
	FieldTimeline     Field = "timeline"
	FieldSource       Field = "source"
	FieldNotes        Field = "notes"
	FieldTags         Field = "tags"
	FieldStatus       Field = "status"
)

// FieldType describes how a raw value is parsed.
type FieldType int

const (
	TypeText FieldType = iota
	TypeEnum
	TypeInteger
	TypeTags
)

// FieldSpec defines validation rules for one lead field.
type FieldSpec struct {
	Name       Field
	DBColumn   string
	Type       FieldType
	Required   bool
	EnumValues []string
	// FreeText values are stored as typed; import only trims them.
	FreeText bool
	// Default replaces an empty value before validation (create and import only).
	Default string
	// Check runs after type parsing on non-empty text values and returns a
	// user-facing message, or "" when the value is acceptable.
	Check func(value string) string
}

// FieldSpecs is the single source of truth for lead fields, in canonical
// order. Errors, diffs, and CSV import columns follow this order.
var FieldSpecs = []FieldSpec{
	{Name: FieldFullName, DBColumn: "full_name", Type: TypeText, Required: true, FreeText: true, Check: checkFullName},
	{Name: FieldEmail, DBColumn: "email", Type: TypeText, FreeText: true, Check: checkEmail},
	{Name: FieldPhone, DBColumn: "phone", Type: TypeText, Required: true, Check: checkPhone},
	{Name: FieldCity, DBColumn: "city", Type: TypeEnum, Required: true, EnumValues: Cities},
	{Name: FieldPropertyType, DBColumn: "property_type", Type: TypeEnum, Required: true, EnumValues: PropertyTypes},
	{Name: FieldBHK, DBColumn: "bhk", Type: TypeEnum, EnumValues: BHKs},
	{Name: FieldPurpose, DBColumn: "purpose", Type: TypeEnum, Required: true, EnumValues: Purposes},
	{Name: FieldBudgetMin, DBColumn: "budget_min", Type: TypeInteger},
	{Name: FieldBudgetMax, DBColumn: "budget_max", Type: TypeInteger},
	{Name: FieldTimeline, DBColumn: "timeline", Type: TypeEnum, Required: true, EnumValues: Timelines},
	{Name: FieldSource, DBColumn: "source", Type: TypeEnum, Required: true, EnumValues: Sources},
	{Name: FieldNotes, DBColumn: "notes", Type: TypeText, FreeText: true, Check: checkNotes},
	{Name: FieldTags, DBColumn: "tags", Type: TypeTags},
	{Name: FieldStatus, DBColumn: "status", Type: TypeEnum, Required: true, EnumValues: Statuses, Default: StatusNew},
}

// LookupField resolves a field by name, ignoring case.
func LookupField(name string) (FieldSpec, bool) {
	name = strings.TrimSpace(name)
	for _, spec := range FieldSpecs {
		if strings.EqualFold(string(spec.Name), name) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// FieldSet is a set of fields, used to record which fields a patch supplied.
type FieldSet uint32

func fieldBit(f Field) FieldSet {
	for i, spec := range FieldSpecs {
		if spec.Name == f {
			return 1 << uint(i)
		}
	}
	return 0
}

// AllFields contains every field in FieldSpecs.
var AllFields = FieldSet(1<<uint(len(FieldSpecs)) - 1)

func (s FieldSet) Has(f Field) bool { return s&fieldBit(f) != 0 }

func (s *FieldSet) Add(f Field) { *s |= fieldBit(f) }

// Fields lists the members in canonical order.
func (s FieldSet) Fields() []Field {
	var out []Field
	for _, spec := range FieldSpecs {
		if s.Has(spec.Name) {
			out = append(out, spec.Name)
		}
	}
	return out
}

// Value returns the normalized value of field f as it appears in history
// payloads: nil for absent optional values, sorted []string for tags.
func (lf *LeadFields) Value(f Field) any {
	switch f {
	case FieldFullName:
		return lf.FullName
	case FieldEmail:
		return nullableText(lf.Email)
	case FieldPhone:
		return lf.Phone
	case FieldCity:
		return lf.City
	case FieldPropertyType:
		return lf.PropertyType
	case FieldBHK:
		return nullableText(lf.BHK)
	case FieldPurpose:
		return lf.Purpose
	case FieldBudgetMin:
		return nullableInt(lf.BudgetMin)
	case FieldBudgetMax:
		return nullableInt(lf.BudgetMax)
	case FieldTimeline:
		return lf.Timeline
	case FieldSource:
		return lf.Source
	case FieldNotes:
		return nullableText(lf.Notes)
	case FieldTags:
		return lf.Tags.Sorted()
	case FieldStatus:
		return lf.Status
	}
	return nil
}

// copyField copies a single field from src into lf.
func (lf *LeadFields) copyField(f Field, src *LeadFields) {
	switch f {
	case FieldFullName:
		lf.FullName = src.FullName
	case FieldEmail:
		lf.Email = src.Email
	case FieldPhone:
		lf.Phone = src.Phone
	case FieldCity:
		lf.City = src.City
	case FieldPropertyType:
		lf.PropertyType = src.PropertyType
	case FieldBHK:
		lf.BHK = src.BHK
	case FieldPurpose:
		lf.Purpose = src.Purpose
	case FieldBudgetMin:
		lf.BudgetMin = copyInt(src.BudgetMin)
	case FieldBudgetMax:
		lf.BudgetMax = copyInt(src.BudgetMax)
	case FieldTimeline:
		lf.Timeline = src.Timeline
	case FieldSource:
		lf.Source = src.Source
	case FieldNotes:
		lf.Notes = src.Notes
	case FieldTags:
		lf.Tags = NewTagSet(src.Tags.Sorted()...)
	case FieldStatus:
		lf.Status = src.Status
	}
}

// fieldEqual compares one field of two records with set semantics for tags.
func fieldEqual(f Field, a, b *LeadFields) bool {
	switch f {
	case FieldTags:
		return a.Tags.Equal(b.Tags)
	case FieldBudgetMin:
		return intEqual(a.BudgetMin, b.BudgetMin)
	case FieldBudgetMax:
		return intEqual(a.BudgetMax, b.BudgetMax)
	default:
		return a.Value(f) == b.Value(f)
	}
}

// Changes is the typed output of the partial-update profile: the supplied
// fields and their parsed values.
type Changes struct {
	Values LeadFields
	Set    FieldSet
}

// Apply copies every supplied field onto lf.
func (c Changes) Apply(lf *LeadFields) {
	for _, f := range c.Set.Fields() {
		lf.copyField(f, &c.Values)
	}
}
