package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/leadbook/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	err := ErrorAlert("<b>bad</b>", "Fix it", "VAL010", []core.FieldError{
		{Field: core.FieldPhone, Message: "Phone must be 10-15 digits"},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>bad</b>") {
		t.Errorf("message not escaped: %s", out)
	}
	for _, want := range []string{"&lt;b&gt;bad&lt;/b&gt;", `data-field="phone"`, "Phone must be 10-15 digits", "VAL010", "Fix it"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestImportReport(t *testing.T) {
	var buf bytes.Buffer
	report := core.ImportReport{
		Total:    5,
		Accepted: 4,
		Rejected: []core.RowError{{Row: 4, Errors: []string{"phone: Phone must be 10-15 digits"}}},
	}
	if err := ImportReport(report).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Imported 4 of 5 rows.") {
		t.Errorf("summary missing: %s", out)
	}
	if !strings.Contains(out, "<td>4</td>") {
		t.Errorf("rejected row number missing: %s", out)
	}
}

func TestErrorAlert_OmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("Lead not found", "", "LEAD001", nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, unwanted := range []string{"alert-fields", "alert-action"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output has %q: %s", unwanted, out)
		}
	}
	if !strings.Contains(out, "Error code: LEAD001") {
		t.Errorf("code missing: %s", out)
	}
}
