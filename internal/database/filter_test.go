package database

import (
	"testing"

	"github.com/JonMunkholm/leadbook/internal/core"
)

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()
	if wb.argIndex != 1 {
		t.Errorf("argIndex = %d, want 1", wb.argIndex)
	}
	clause, args := wb.Build()
	if clause != "" {
		t.Errorf("empty Build clause = %q, want \"\"", clause)
	}
	if args != nil {
		t.Errorf("empty Build args = %v, want nil", args)
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("status", "New")
	wb.Add("city", "")
	wb.Add("timeline", "0-3m")

	clause, args := wb.Build()
	if want := " WHERE status = $1 AND timeline = $2"; clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 2 || args[0] != "New" || args[1] != "0-3m" {
		t.Errorf("args = %v, want [New 0-3m]", args)
	}
	if wb.NextArgIndex() != 3 {
		t.Errorf("NextArgIndex = %d, want 3", wb.NextArgIndex())
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		columns    []string
		wantClause string
		wantArg    string
	}{
		{
			name:       "single column",
			query:      "asha",
			columns:    []string{"name"},
			wantClause: ` WHERE (name ILIKE $1)`,
			wantArg:    "%asha%",
		},
		{
			name:       "shared placeholder",
			query:      "98",
			columns:    []string{"name", "phone"},
			wantClause: ` WHERE (name ILIKE $1 OR phone ILIKE $1)`,
			wantArg:    "%98%",
		},
		{
			name:       "wildcards escaped",
			query:      `50%_off\`,
			columns:    []string{"notes"},
			wantClause: ` WHERE (notes ILIKE $1)`,
			wantArg:    `%50\%\_off\\%`,
		},
		{
			name:    "blank query skipped",
			query:   "   ",
			columns: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.query, tt.columns...)
			clause, args := wb.Build()
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if tt.wantArg == "" {
				if len(args) != 0 {
					t.Errorf("args = %v, want none", args)
				}
				return
			}
			if len(args) != 1 || args[0] != tt.wantArg {
				t.Errorf("args = %v, want [%s]", args, tt.wantArg)
			}
		})
	}
}

func TestLeadWhere(t *testing.T) {
	wb := leadWhere(core.Filter{City: "Mohali", Status: "New", Search: "rao"})
	clause, args := wb.Build()

	want := " WHERE l.city = $1 AND l.status = $2 AND (l.full_name ILIKE $3 OR l.email ILIKE $3 OR l.phone ILIKE $3)"
	if clause != want {
		t.Errorf("clause = %q\nwant      %q", clause, want)
	}
	if len(args) != 3 {
		t.Fatalf("len(args) = %d, want 3", len(args))
	}
	if args[2] != "%rao%" {
		t.Errorf("search arg = %v, want %%rao%%", args[2])
	}
	if wb.NextArgIndex() != 4 {
		t.Errorf("NextArgIndex = %d, want 4", wb.NextArgIndex())
	}
}
