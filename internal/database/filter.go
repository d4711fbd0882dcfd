package database

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// WhereBuilder assembles a parameterized WHERE clause. Placeholders are
// numbered from $1 in the order conditions are added.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch matches query as a case-insensitive substring of any of the
// columns. All columns share one placeholder. LIKE wildcards in query are
// escaped so they match literally.
func (wb *WhereBuilder) AddSearch(query string, columns ...string) {
	query = strings.TrimSpace(query)
	if query == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(query)+"%")
	wb.argIndex++
}

// Build returns the clause with a leading " WHERE ", or "" and nil when no
// conditions were added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex is the number of the next unused placeholder.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// leadWhere translates a lead filter against the "l" alias.
func leadWhere(f core.Filter) *WhereBuilder {
	wb := NewWhereBuilder()
	wb.Add("l.city", f.City)
	wb.Add("l.property_type", f.PropertyType)
	wb.Add("l.status", f.Status)
	wb.Add("l.timeline", f.Timeline)
	wb.AddSearch(f.Search, "l.full_name", "l.email", "l.phone")
	return wb
}
