package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexString accepts a JSON string, number, or null and keeps its text form.
// Form posts send budgets as strings while API clients send numbers; both
// funnel into the same text parser.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = FlexString(num.String())
	return nil
}

// CleanCell normalizes a raw CSV cell: trims whitespace, unwraps Excel
// formula quoting (="..."), and strips surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else {
		s = strings.TrimPrefix(s, "=")
	}
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// parseBudget converts budget text to a positive integer. Thousands
// separators and surrounding spaces are tolerated.
func parseBudget(raw string) (int64, string) {
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(raw)
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, "Budget must be a whole number"
	}
	if n <= 0 {
		return 0, "Budget must be positive"
	}
	return n, ""
}

// canonicalEnum returns the declared spelling of value, matched case-insensitively.
func canonicalEnum(value string, allowed []string) (string, bool) {
	for _, ev := range allowed {
		if strings.EqualFold(ev, value) {
			return ev, true
		}
	}
	return "", false
}

// CanonicalTime normalizes a version timestamp to UTC with microsecond
// precision, the resolution Postgres stores.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// ParseVersion parses a caller-supplied updatedAt into canonical form.
func ParseVersion(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ValidationError{Errors: []FieldError{{Field: "updatedAt", Message: "updatedAt is required"}}}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Errors: []FieldError{{Field: "updatedAt", Message: "updatedAt must be an RFC 3339 timestamp"}}}
	}
	return CanonicalTime(t), nil
}

// FormatTimestamp renders t in the ISO-8601 form used for CSV export.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func copyInt(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func intEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatBudget(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
