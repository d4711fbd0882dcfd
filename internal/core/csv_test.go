package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"
)

const csvHeader = "fullName,phone,city,propertyType,bhk,purpose,timeline,source,notes\n"

func TestReadCSV(t *testing.T) {
	input := "\ufeff" + csvHeader +
		"Ravi Kumar,9876543210,Chandigarh,Apartment,2,Buy,0-3m,Website,\n" +
		",,,,,,,,\n" +
		"Meena Shah,9876543211,Mohali,Plot,,Buy,3-6m,Call,\"two\nlines\"\n" +
		"Arun,9876543212,Other,Office,,Rent,>6m,Other,\n"

	rows, err := ReadCSV(strings.NewReader(input), 10)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	wantLines := []int{2, 4, 6}
	for i, want := range wantLines {
		if rows[i].Line != want {
			t.Errorf("rows[%d].Line = %d, want %d", i, rows[i].Line, want)
		}
	}
	if got := rows[0].Values["fullName"]; got != "Ravi Kumar" {
		t.Errorf("BOM not stripped: fullName = %q", got)
	}
	if got := rows[1].Values["notes"]; got != "two\nlines" {
		t.Errorf("notes = %q, want embedded newline", got)
	}
}

func TestReadCSV_BatchSize(t *testing.T) {
	row := "Ravi Kumar,9876543210,Chandigarh,Plot,,Buy,0-3m,Website,\n"

	tests := []struct {
		name     string
		input    string
		max      int
		wantRows int
	}{
		{"empty file", "", 5, 0},
		{"header only", csvHeader, 5, 0},
		{"blank rows only", csvHeader + ",,,\n\n", 5, 0},
		{"one over", csvHeader + strings.Repeat(row, 6), 5, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), tt.max)
			var be *BatchSizeError
			if !errors.As(err, &be) {
				t.Fatalf("error = %v, want *BatchSizeError", err)
			}
			if be.Rows != tt.wantRows || be.Max != tt.max {
				t.Errorf("BatchSizeError = %+v, want Rows %d Max %d", be, tt.wantRows, tt.max)
			}
		})
	}

	rows, err := ReadCSV(strings.NewReader(csvHeader+strings.Repeat(row, 5)), 5)
	if err != nil || len(rows) != 5 {
		t.Errorf("at the ceiling: %d rows, err %v", len(rows), err)
	}
}

func TestReadCSV_BadInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing columns", "fullName,email\nRavi,r@x.com\n", "missing required columns"},
		{"bad quoting", csvHeader + "\"Ravi,9876543210\n", "invalid csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), 5)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}

	rows, err := ReadCSV(&buf, DefaultMaxImportRows)
	if err != nil {
		t.Fatalf("template does not read back: %v", err)
	}
	for _, row := range rows {
		if _, err := ParseRow(row); err != nil {
			t.Errorf("template row %d is invalid: %v", row.Line, err)
		}
	}
}

func TestExportRecord(t *testing.T) {
	min := int64(2000000)
	ts := time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.UTC)
	rec := exportRecord(Lead{
		LeadFields: LeadFields{
			FullName:  "Ravi Kumar",
			Phone:     "9876543210",
			BudgetMin: &min,
			Tags:      NewTagSet("b", "a"),
			Status:    "New",
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	})

	if len(rec) != len(ExportColumns) {
		t.Fatalf("len(record) = %d, want %d", len(rec), len(ExportColumns))
	}
	want := map[string]string{
		"fullName":  "Ravi Kumar",
		"budgetMin": "2000000",
		"budgetMax": "",
		"tags":      "a,b",
		"createdAt": "2024-05-01T10:30:00.123Z",
	}
	for i, col := range ExportColumns {
		if w, ok := want[col]; ok && rec[i] != w {
			t.Errorf("%s = %q, want %q", col, rec[i], w)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2024, 12, 3, 23, 0, 0, 0, time.UTC))
	if got != "buyers_export_2024-12-03.csv" {
		t.Errorf("ExportFilename() = %q", got)
	}
}

func TestExportRoundTrip(t *testing.T) {
	in := validInput()
	in.FullName = "=Ravi"
	in.Notes = `Client said "call after 6"`
	fields, err := ValidateCreate(in)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write(ExportColumns)
	cw.Write(exportRecord(Lead{LeadFields: fields}))
	cw.Flush()

	rows, err := ReadCSV(&buf, 1)
	if err != nil {
		t.Fatalf("export does not import: %v", err)
	}
	back, err := ParseRow(rows[0])
	if err != nil {
		t.Fatalf("ParseRow() error = %v", err)
	}
	if !back.Tags.Equal(fields.Tags) || back.Email != fields.Email || *back.BudgetMax != *fields.BudgetMax {
		t.Errorf("round trip = %+v, want %+v", back, fields)
	}
	if back.FullName != fields.FullName {
		t.Errorf("FullName = %q, want %q", back.FullName, fields.FullName)
	}
	if back.Notes != fields.Notes {
		t.Errorf("Notes = %q, want %q", back.Notes, fields.Notes)
	}
}
