package core

// csv.go handles the tabular import and export formats.
//
// Input files are decoded through a transformer that drops a leading UTF-8
// BOM (common in Excel exports) and replaces invalid byte sequences, so
// encoding/csv always sees valid UTF-8. Header names are matched
// case-insensitively; unknown columns are ignored and optional columns may be
// missing entirely.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExportColumns is the header row of exported files.
var ExportColumns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "status", "notes", "tags",
	"createdAt", "updatedAt",
}

// ImportColumns is the header row expected in import files.
func ImportColumns() []string {
	cols := make([]string, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		cols[i] = string(spec.Name)
	}
	return cols
}

// NewImportReader wraps r so that a BOM is skipped and bad UTF-8 is replaced.
func NewImportReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadCSV parses an import file into raw rows. Line numbers are the file line
// on which each record starts, so the first data row under a header is 2.
// Records whose cells are all blank are skipped. If more than maxRows data
// rows are present the whole file is rejected with a *BatchSizeError.
func ReadCSV(r io.Reader, maxRows int) ([]RawRow, error) {
	cr := csv.NewReader(NewImportReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &BatchSizeError{Rows: 0, Max: maxRows}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}
	columns, err := ValidateHeaders(header)
	if err != nil {
		return nil, err
	}

	var (
		rows  []RawRow
		count int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}
		count++
		if count > maxRows {
			continue
		}

		line, _ := cr.FieldPos(0)
		values := make(map[string]string, len(columns))
		for pos, f := range columns {
			if pos < len(record) {
				values[string(f)] = record[pos]
			}
		}
		rows = append(rows, RawRow{Line: line, Values: values})
	}

	if count == 0 || count > maxRows {
		return nil, &BatchSizeError{Rows: count, Max: maxRows}
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// exportRecord renders a lead in ExportColumns order.
func exportRecord(l Lead) []string {
	return []string{
		l.FullName,
		l.Email,
		l.Phone,
		l.City,
		l.PropertyType,
		l.BHK,
		l.Purpose,
		formatBudget(l.BudgetMin),
		formatBudget(l.BudgetMax),
		l.Timeline,
		l.Source,
		l.Status,
		l.Notes,
		l.Tags.String(),
		FormatTimestamp(l.CreatedAt),
		FormatTimestamp(l.UpdatedAt),
	}
}

// WriteTemplate writes an import template with example rows.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		ImportColumns(),
		{"John Doe", "john@example.com", "9876543210", "Chandigarh", "Apartment", "2", "Buy",
			"2000000", "5000000", "0-3m", "Website", "Looking for 2BHK", "premium,urgent", "New"},
		{"Jane Smith", "", "9876543211", "Mohali", "Plot", "", "Buy",
			"10000000", "20000000", "3-6m", "Referral", "Corner plot preferred", "luxury", "Qualified"},
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
