package core

// validation.go implements the three validation profiles for lead input.
//
// Every profile runs the same two stages:
//  1. Field parsing: each supplied raw value is checked against its FieldSpec
//     (required, type, enum domain, per-field rule) and stored in a typed
//     LeadFields draft.
//  2. Cross-field rules: a pure check over the typed draft (budget ordering,
//     bedroom category for residential types).
//
// Errors from both stages accumulate in canonical field order; validation
// never stops at the first failure.

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single validation failure attached to a field path.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

var (
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
	validate     = validator.New()
)

const (
	msgBudgetOrder = "Budget max must be greater than or equal to budget min"
	msgBHKRequired = "BHK is required for Apartment and Villa property types"
)

func checkFullName(v string) string {
	n := utf8.RuneCountInString(v)
	if n < 2 {
		return "Name must be at least 2 characters"
	}
	if n > 80 {
		return "Name must be less than 80 characters"
	}
	return ""
}

func checkEmail(v string) string {
	if err := validate.Var(v, "email,max=255"); err != nil {
		return "Invalid email address"
	}
	return ""
}

func checkPhone(v string) string {
	if !phonePattern.MatchString(v) {
		return "Phone must be 10-15 digits"
	}
	return ""
}

func checkNotes(v string) string {
	if utf8.RuneCountInString(v) > 1000 {
		return "Notes must be less than 1000 characters"
	}
	return ""
}

// LeadInput is a full lead candidate as submitted by a form or API client.
type LeadInput struct {
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	City         string     `json:"city"`
	PropertyType string     `json:"propertyType"`
	BHK          FlexString `json:"bhk"`
	Purpose      string     `json:"purpose"`
	BudgetMin    FlexString `json:"budgetMin"`
	BudgetMax    FlexString `json:"budgetMax"`
	Timeline     string     `json:"timeline"`
	Source       string     `json:"source"`
	Notes        string     `json:"notes"`
	Tags         []string   `json:"tags"`
	Status       string     `json:"status"`
}

// LeadPatch carries a partial update. A nil pointer means "not supplied";
// an empty string clears an optional field.
type LeadPatch struct {
	FullName     *string     `json:"fullName,omitempty"`
	Email        *string     `json:"email,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	City         *string     `json:"city,omitempty"`
	PropertyType *string     `json:"propertyType,omitempty"`
	BHK          *FlexString `json:"bhk,omitempty"`
	Purpose      *string     `json:"purpose,omitempty"`
	BudgetMin    *FlexString `json:"budgetMin,omitempty"`
	BudgetMax    *FlexString `json:"budgetMax,omitempty"`
	Timeline     *string     `json:"timeline,omitempty"`
	Source       *string     `json:"source,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Tags         *[]string   `json:"tags,omitempty"`
	Status       *string     `json:"status,omitempty"`
}

// RawRow is one import row. Values are keyed by field name; Line is the
// user-facing row number (0 means "derive from position").
type RawRow struct {
	Line   int
	Values map[string]string
}

// candidate is the profile-neutral raw input handed to stage one.
type candidate struct {
	text    map[Field]string
	tags    TagSet
	present FieldSet
}

func (c *candidate) put(f Field, v string) {
	if c.text == nil {
		c.text = make(map[Field]string)
	}
	c.text[f] = v
	c.present.Add(f)
}

// profile selects how stage one treats missing and empty values.
type profile int

const (
	profileCreate profile = iota
	profilePatch
)

// ValidateCreate applies the full-create profile.
func ValidateCreate(in LeadInput) (LeadFields, error) {
	c := candidate{}
	c.put(FieldFullName, in.FullName)
	c.put(FieldEmail, in.Email)
	c.put(FieldPhone, in.Phone)
	c.put(FieldCity, in.City)
	c.put(FieldPropertyType, in.PropertyType)
	c.put(FieldBHK, string(in.BHK))
	c.put(FieldPurpose, in.Purpose)
	c.put(FieldBudgetMin, string(in.BudgetMin))
	c.put(FieldBudgetMax, string(in.BudgetMax))
	c.put(FieldTimeline, in.Timeline)
	c.put(FieldSource, in.Source)
	c.put(FieldNotes, in.Notes)
	c.put(FieldStatus, in.Status)
	c.tags = NewTagSet(in.Tags...)
	c.present.Add(FieldTags)

	fields, _, err := runProfile(c, profileCreate)
	return fields, err
}

// ValidatePatch applies the partial-update profile. Only supplied fields are
// checked, and a cross-field rule fires only when all its fields were supplied.
func ValidatePatch(p LeadPatch) (Changes, error) {
	c := candidate{}
	putOpt := func(f Field, v *string) {
		if v != nil {
			c.put(f, *v)
		}
	}
	putFlex := func(f Field, v *FlexString) {
		if v != nil {
			c.put(f, string(*v))
		}
	}
	putOpt(FieldFullName, p.FullName)
	putOpt(FieldEmail, p.Email)
	putOpt(FieldPhone, p.Phone)
	putOpt(FieldCity, p.City)
	putOpt(FieldPropertyType, p.PropertyType)
	putFlex(FieldBHK, p.BHK)
	putOpt(FieldPurpose, p.Purpose)
	putFlex(FieldBudgetMin, p.BudgetMin)
	putFlex(FieldBudgetMax, p.BudgetMax)
	putOpt(FieldTimeline, p.Timeline)
	putOpt(FieldSource, p.Source)
	putOpt(FieldNotes, p.Notes)
	putOpt(FieldStatus, p.Status)
	if p.Tags != nil {
		c.tags = NewTagSet(*p.Tags...)
		c.present.Add(FieldTags)
	}

	fields, set, err := runProfile(c, profilePatch)
	if err != nil {
		return Changes{}, err
	}
	return Changes{Values: fields, Set: set}, nil
}

// ParseRow applies the row-import profile: every value arrives as text and is
// coerced before the create rules apply. Spreadsheet quoting is unwrapped on
// coded cells only; free text keeps its content. Missing columns count as empty.
func ParseRow(row RawRow) (LeadFields, error) {
	c := candidate{}
	for _, spec := range FieldSpecs {
		if spec.Type == TypeTags {
			continue
		}
		raw := rowValue(row.Values, spec.Name)
		if spec.FreeText {
			c.put(spec.Name, strings.TrimSpace(raw))
		} else {
			c.put(spec.Name, CleanCell(raw))
		}
	}
	c.tags = ParseTagList(rowValue(row.Values, FieldTags))
	c.present.Add(FieldTags)

	fields, _, err := runProfile(c, profileCreate)
	return fields, err
}

// rowValue looks up a field in a raw row, tolerating differently cased keys.
func rowValue(values map[string]string, f Field) string {
	if v, ok := values[string(f)]; ok {
		return v
	}
	for k, v := range values {
		if strings.EqualFold(strings.TrimSpace(k), string(f)) {
			return v
		}
	}
	return ""
}

// runProfile executes both stages and returns the typed draft, the set of
// fields it covers, and a *ValidationError when anything failed.
func runProfile(c candidate, p profile) (LeadFields, FieldSet, error) {
	var (
		out    LeadFields
		failed FieldSet
		errs   []FieldError
	)

	for _, spec := range FieldSpecs {
		if !c.present.Has(spec.Name) {
			continue
		}
		if spec.Type == TypeTags {
			out.Tags = c.tags
			continue
		}
		if msg := parseInto(&out, spec, strings.TrimSpace(c.text[spec.Name]), p); msg != "" {
			errs = append(errs, FieldError{Field: spec.Name, Message: msg})
			failed.Add(spec.Name)
		}
	}
	if out.Tags == nil {
		out.Tags = TagSet{}
	}

	errs = append(errs, checkRules(&out, c.present, failed)...)
	if len(errs) > 0 {
		sortFieldErrors(errs)
		return LeadFields{}, 0, &ValidationError{Errors: errs}
	}
	return out, c.present, nil
}

// parseInto validates one raw value and stores its typed form in out.
// Returns a user-facing message on failure.
func parseInto(out *LeadFields, spec FieldSpec, raw string, p profile) string {
	if raw == "" && p == profileCreate && spec.Default != "" {
		raw = spec.Default
	}
	if raw == "" {
		if spec.Required {
			return fmt.Sprintf("%s is required", spec.Name)
		}
		// Empty optional value: absent.
		out.copyField(spec.Name, &LeadFields{})
		return ""
	}

	switch spec.Type {
	case TypeEnum:
		canon, ok := canonicalEnum(raw, spec.EnumValues)
		if !ok {
			return fmt.Sprintf("must be one of: %s", strings.Join(spec.EnumValues, ", "))
		}
		raw = canon
	case TypeInteger:
		n, msg := parseBudget(raw)
		if msg != "" {
			return msg
		}
		setBudget(out, spec.Name, n)
		return ""
	}

	if spec.Check != nil {
		if msg := spec.Check(raw); msg != "" {
			return msg
		}
	}
	setText(out, spec.Name, raw)
	return ""
}

func setText(out *LeadFields, f Field, v string) {
	src := LeadFields{
		FullName: v, Email: v, Phone: v, City: v, PropertyType: v, BHK: v,
		Purpose: v, Timeline: v, Source: v, Notes: v, Status: v,
	}
	out.copyField(f, &src)
}

func setBudget(out *LeadFields, f Field, n int64) {
	switch f {
	case FieldBudgetMin:
		out.BudgetMin = &n
	case FieldBudgetMax:
		out.BudgetMax = &n
	}
}

// checkRules is the cross-field stage. A rule fires only when all fields it
// references were supplied and parsed cleanly.
func checkRules(lf *LeadFields, present, failed FieldSet) []FieldError {
	var errs []FieldError
	usable := func(fs ...Field) bool {
		for _, f := range fs {
			if !present.Has(f) || failed.Has(f) {
				return false
			}
		}
		return true
	}

	if usable(FieldBudgetMin, FieldBudgetMax) && lf.BudgetMin != nil && lf.BudgetMax != nil &&
		*lf.BudgetMax < *lf.BudgetMin {
		errs = append(errs, FieldError{Field: FieldBudgetMax, Message: msgBudgetOrder})
	}
	if usable(FieldPropertyType, FieldBHK) && requiresBHK(lf.PropertyType) && lf.BHK == "" {
		errs = append(errs, FieldError{Field: FieldBHK, Message: msgBHKRequired})
	}
	return errs
}

// CheckRecord runs the cross-field rules against a complete record, e.g. the
// result of applying a patch to a stored lead.
func CheckRecord(lf LeadFields) error {
	if errs := checkRules(&lf, AllFields, 0); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// sortFieldErrors orders errors by canonical field position, keeping the
// relative order of errors on the same field.
func sortFieldErrors(errs []FieldError) {
	pos := func(f Field) int {
		for i, spec := range FieldSpecs {
			if spec.Name == f {
				return i
			}
		}
		return len(FieldSpecs)
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return pos(errs[i].Field) < pos(errs[j].Field)
	})
}

// ValidateHeaders checks that every required column is present in a CSV
// header row and maps column positions to fields. Unknown columns are ignored.
func ValidateHeaders(headers []string) (map[int]Field, error) {
	idx := make(map[int]Field, len(headers))
	seen := FieldSet(0)
	for i, h := range headers {
		spec, ok := LookupField(CleanCell(h))
		if !ok {
			continue
		}
		idx[i] = spec.Name
		seen.Add(spec.Name)
	}

	var missing []string
	for _, spec := range FieldSpecs {
		if spec.Required && spec.Default == "" && !seen.Has(spec.Name) {
			missing = append(missing, string(spec.Name))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
