package core

import "strings"

// Filter is the predicate shared by listing and export. Empty fields do not
// constrain; set fields are AND-combined.
type Filter struct {
	City         string
	PropertyType string
	Status       string
	Timeline     string
	// Search matches case-insensitively as a substring of name, email, or phone.
	Search string
}

// NewFilter validates enum criteria and canonicalizes their spelling.
func NewFilter(city, propertyType, status, timeline, search string) (Filter, error) {
	var errs []FieldError
	canon := func(f Field, raw string, allowed []string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return ""
		}
		v, ok := canonicalEnum(raw, allowed)
		if !ok {
			errs = append(errs, FieldError{Field: f, Message: "must be one of: " + strings.Join(allowed, ", ")})
		}
		return v
	}

	f := Filter{
		City:         canon(FieldCity, city, Cities),
		PropertyType: canon(FieldPropertyType, propertyType, PropertyTypes),
		Status:       canon(FieldStatus, status, Statuses),
		Timeline:     canon(FieldTimeline, timeline, Timelines),
		Search:       strings.TrimSpace(search),
	}
	if len(errs) > 0 {
		return Filter{}, &ValidationError{Errors: errs}
	}
	return f, nil
}

// Matches evaluates the filter in memory with the same semantics as the SQL
// predicate built by the database package.
func (f Filter) Matches(l Lead) bool {
	if f.City != "" && l.City != f.City {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Timeline != "" && l.Timeline != f.Timeline {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.FullName), q) &&
			!strings.Contains(strings.ToLower(l.Email), q) &&
			!strings.Contains(strings.ToLower(l.Phone), q) {
			return false
		}
	}
	return true
}
