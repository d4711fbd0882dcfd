package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validInput() LeadInput {
	return LeadInput{
		FullName:     "Asha Verma",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		City:         "Mohali",
		PropertyType: "Apartment",
		BHK:          "2",
		Purpose:      "Buy",
		BudgetMin:    "2000000",
		BudgetMax:    "5000000",
		Timeline:     "0-3m",
		Source:       "Website",
		Tags:         []string{"urgent", " premium ", "urgent", ""},
	}
}

func strPtr(s string) *string { return &s }

func flexPtr(s string) *FlexString {
	f := FlexString(s)
	return &f
}

// fieldsOf returns the failing fields of a *ValidationError, in order.
func fieldsOf(t *testing.T, err error) []Field {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	out := make([]Field, len(ve.Errors))
	for i, fe := range ve.Errors {
		out[i] = fe.Field
	}
	return out
}

func TestValidateCreate_Valid(t *testing.T) {
	lf, err := ValidateCreate(validInput())
	if err != nil {
		t.Fatalf("ValidateCreate() error = %v", err)
	}
	if lf.Status != StatusNew {
		t.Errorf("Status = %q, want default %q", lf.Status, StatusNew)
	}
	if lf.BudgetMin == nil || *lf.BudgetMin != 2000000 {
		t.Errorf("BudgetMin = %v, want 2000000", lf.BudgetMin)
	}
	if got := lf.Tags.Sorted(); !reflect.DeepEqual(got, []string{"premium", "urgent"}) {
		t.Errorf("Tags = %v, want [premium urgent]", got)
	}
}

func TestValidateCreate_Canonicalizes(t *testing.T) {
	in := validInput()
	in.City = "  mohali "
	in.PropertyType = "APARTMENT"
	in.BHK = "studio"
	in.Timeline = ">6M"
	in.Status = "qualified"
	in.BudgetMin = "20,00,000"
	in.Email = ""

	lf, err := ValidateCreate(in)
	if err != nil {
		t.Fatalf("ValidateCreate() error = %v", err)
	}
	if lf.City != "Mohali" || lf.PropertyType != "Apartment" || lf.BHK != "Studio" {
		t.Errorf("enums = %q/%q/%q, want Mohali/Apartment/Studio", lf.City, lf.PropertyType, lf.BHK)
	}
	if lf.Timeline != ">6m" || lf.Status != "Qualified" {
		t.Errorf("Timeline/Status = %q/%q", lf.Timeline, lf.Status)
	}
	if lf.BudgetMin == nil || *lf.BudgetMin != 2000000 {
		t.Errorf("BudgetMin = %v, want 2000000", lf.BudgetMin)
	}
	if lf.Email != "" {
		t.Errorf("Email = %q, want absent", lf.Email)
	}
}

func TestValidateCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LeadInput)
		want   []Field
	}{
		{
			name:   "short name",
			mutate: func(in *LeadInput) { in.FullName = "A" },
			want:   []Field{FieldFullName},
		},
		{
			name:   "long name",
			mutate: func(in *LeadInput) { in.FullName = strings.Repeat("a", 81) },
			want:   []Field{FieldFullName},
		},
		{
			name:   "bad email",
			mutate: func(in *LeadInput) { in.Email = "not-an-email" },
			want:   []Field{FieldEmail},
		},
		{
			name:   "phone with letters",
			mutate: func(in *LeadInput) { in.Phone = "98765abc10" },
			want:   []Field{FieldPhone},
		},
		{
			name:   "unknown city",
			mutate: func(in *LeadInput) { in.City = "Delhi" },
			want:   []Field{FieldCity},
		},
		{
			name:   "bhk missing for villa",
			mutate: func(in *LeadInput) { in.PropertyType = "Villa"; in.BHK = "" },
			want:   []Field{FieldBHK},
		},
		{
			name:   "budget max below min",
			mutate: func(in *LeadInput) { in.BudgetMin = "5000000"; in.BudgetMax = "100" },
			want:   []Field{FieldBudgetMax},
		},
		{
			name:   "non-numeric budget",
			mutate: func(in *LeadInput) { in.BudgetMin = "lots" },
			want:   []Field{FieldBudgetMin},
		},
		{
			name:   "zero budget",
			mutate: func(in *LeadInput) { in.BudgetMax = "0" },
			want:   []Field{FieldBudgetMax},
		},
		{
			name:   "notes too long",
			mutate: func(in *LeadInput) { in.Notes = strings.Repeat("n", 1001) },
			want:   []Field{FieldNotes},
		},
		{
			name: "every failure reported in field order",
			mutate: func(in *LeadInput) {
				in.Source = ""
				in.Phone = "1"
				in.FullName = ""
				in.City = "Nowhere"
			},
			want: []Field{FieldFullName, FieldPhone, FieldCity, FieldSource},
		},
		{
			name: "broken budget suppresses order rule",
			mutate: func(in *LeadInput) {
				in.BudgetMin = "abc"
				in.BudgetMax = "1"
			},
			want: []Field{FieldBudgetMin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := ValidateCreate(in)
			if got := fieldsOf(t, err); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("failing fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateCreate_BHKKeptForPlot(t *testing.T) {
	in := validInput()
	in.PropertyType = "Plot"
	lf, err := ValidateCreate(in)
	if err != nil {
		t.Fatalf("ValidateCreate() error = %v", err)
	}
	if lf.BHK != "2" {
		t.Errorf("BHK = %q, want 2", lf.BHK)
	}
}

func TestValidatePatch(t *testing.T) {
	tests := []struct {
		name     string
		patch    LeadPatch
		wantSet  []Field
		wantErrs []Field
	}{
		{
			name:    "empty patch",
			patch:   LeadPatch{},
			wantSet: nil,
		},
		{
			name:    "single field",
			patch:   LeadPatch{Status: strPtr("contacted")},
			wantSet: []Field{FieldStatus},
		},
		{
			name:    "clear optional",
			patch:   LeadPatch{Email: strPtr(""), Notes: strPtr("  ")},
			wantSet: []Field{FieldEmail, FieldNotes},
		},
		{
			name:     "clear required",
			patch:    LeadPatch{Phone: strPtr("")},
			wantErrs: []Field{FieldPhone},
		},
		{
			name:    "one budget alone skips order rule",
			patch:   LeadPatch{BudgetMax: flexPtr("1")},
			wantSet: []Field{FieldBudgetMax},
		},
		{
			name:     "both budgets checked together",
			patch:    LeadPatch{BudgetMin: flexPtr("10"), BudgetMax: flexPtr("5")},
			wantErrs: []Field{FieldBudgetMax},
		},
		{
			name:     "villa without bhk in same patch",
			patch:    LeadPatch{PropertyType: strPtr("Villa"), BHK: flexPtr("")},
			wantErrs: []Field{FieldBHK},
		},
		{
			name:    "tags replace",
			patch:   LeadPatch{Tags: &[]string{"b", "a"}},
			wantSet: []Field{FieldTags},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := ValidatePatch(tt.patch)
			if tt.wantErrs != nil {
				if got := fieldsOf(t, err); !reflect.DeepEqual(got, tt.wantErrs) {
					t.Errorf("failing fields = %v, want %v", got, tt.wantErrs)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePatch() error = %v", err)
			}
			if got := changes.Set.Fields(); !reflect.DeepEqual(got, tt.wantSet) {
				t.Errorf("Set = %v, want %v", got, tt.wantSet)
			}
		})
	}
}

func TestValidatePatch_StatusNotDefaulted(t *testing.T) {
	_, err := ValidatePatch(LeadPatch{Status: strPtr("")})
	if got := fieldsOf(t, err); !reflect.DeepEqual(got, []Field{FieldStatus}) {
		t.Errorf("failing fields = %v, want [status]", got)
	}
}

func TestChangesApply(t *testing.T) {
	current, err := ValidateCreate(validInput())
	if err != nil {
		t.Fatal(err)
	}
	changes, err := ValidatePatch(LeadPatch{Email: strPtr(""), Status: strPtr("Visited")})
	if err != nil {
		t.Fatal(err)
	}

	merged := current
	changes.Apply(&merged)
	if merged.Email != "" || merged.Status != "Visited" {
		t.Errorf("merged Email/Status = %q/%q, want empty/Visited", merged.Email, merged.Status)
	}
	if merged.Phone != current.Phone || merged.BHK != current.BHK {
		t.Error("Apply changed fields that were not supplied")
	}
}

func TestCheckRecord(t *testing.T) {
	lf, err := ValidateCreate(validInput())
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckRecord(lf); err != nil {
		t.Errorf("CheckRecord(valid) = %v", err)
	}

	lf.BHK = ""
	if got := fieldsOf(t, CheckRecord(lf)); !reflect.DeepEqual(got, []Field{FieldBHK}) {
		t.Errorf("failing fields = %v, want [bhk]", got)
	}
}

func TestParseRow(t *testing.T) {
	row := RawRow{Line: 7, Values: map[string]string{
		"FullName":     "  Ravi Kumar ",
		"phone":        `="9876543210"`,
		"city":         "chandigarh",
		"propertyType": "Plot",
		"purpose":      "Rent",
		"budgetMin":    "1,000",
		"timeline":     "Exploring",
		"source":       "Walk-in",
		"tags":         "vip, ,hot,vip",
	}}

	lf, err := ParseRow(row)
	if err != nil {
		t.Fatalf("ParseRow() error = %v", err)
	}
	if lf.FullName != "Ravi Kumar" || lf.Phone != "9876543210" || lf.City != "Chandigarh" {
		t.Errorf("name/phone/city = %q/%q/%q", lf.FullName, lf.Phone, lf.City)
	}
	if lf.BudgetMin == nil || *lf.BudgetMin != 1000 || lf.BudgetMax != nil {
		t.Errorf("budgets = %v/%v, want 1000/nil", lf.BudgetMin, lf.BudgetMax)
	}
	if got := lf.Tags.Sorted(); !reflect.DeepEqual(got, []string{"hot", "vip"}) {
		t.Errorf("Tags = %v, want [hot vip]", got)
	}
	if lf.Status != StatusNew {
		t.Errorf("Status = %q, want %q", lf.Status, StatusNew)
	}
}

func TestParseRow_FreeTextKeptVerbatim(t *testing.T) {
	row := RawRow{Values: map[string]string{
		"fullName":     "=Ravi",
		"email":        " ravi@example.com ",
		"phone":        `="9876543210"`,
		"city":         "Mohali",
		"propertyType": "Office",
		"purpose":      "Buy",
		"timeline":     "0-3m",
		"source":       "Referral",
		"notes":        `Client said "call after 6"`,
	}}

	lf, err := ParseRow(row)
	if err != nil {
		t.Fatalf("ParseRow() error = %v", err)
	}
	if lf.FullName != "=Ravi" {
		t.Errorf("FullName = %q, want %q", lf.FullName, "=Ravi")
	}
	if lf.Email != "ravi@example.com" {
		t.Errorf("Email = %q, want %q", lf.Email, "ravi@example.com")
	}
	if lf.Notes != `Client said "call after 6"` {
		t.Errorf("Notes = %q, want %q", lf.Notes, `Client said "call after 6"`)
	}
	if lf.Phone != "9876543210" {
		t.Errorf("Phone = %q, want %q", lf.Phone, "9876543210")
	}
}

func TestParseRow_MissingColumnsAreEmpty(t *testing.T) {
	_, err := ParseRow(RawRow{Values: map[string]string{"fullName": "Ravi Kumar"}})
	want := []Field{FieldPhone, FieldCity, FieldPropertyType, FieldPurpose, FieldTimeline, FieldSource}
	if got := fieldsOf(t, err); !reflect.DeepEqual(got, want) {
		t.Errorf("failing fields = %v, want %v", got, want)
	}
}

func TestValidateHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		wantErr string
		wantLen int
	}{
		{
			name:    "all columns",
			headers: ImportColumns(),
			wantLen: len(FieldSpecs),
		},
		{
			name:    "status optional and unknown ignored",
			headers: []string{"FULLNAME", "phone", "city", "propertyType", "purpose", "timeline", "source", "extra"},
			wantLen: 7,
		},
		{
			name:    "missing required",
			headers: []string{"fullName", "city"},
			wantErr: "missing required columns: phone, propertyType, purpose, timeline, source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ValidateHeaders(tt.headers)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateHeaders() error = %v", err)
			}
			if len(idx) != tt.wantLen {
				t.Errorf("len(idx) = %d, want %d", len(idx), tt.wantLen)
			}
		})
	}
}

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want FlexString
		err  bool
	}{
		{`"2"`, "2", false},
		{`2000000`, "2000000", false},
		{`null`, "", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var f FlexString
		err := f.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.err {
			t.Errorf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if f != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.in, f, tt.want)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  plain  ", "plain"},
		{`="0123"`, "0123"},
		{`=5`, "5"},
		{`"quoted"`, "quoted"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
