package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Lead struct {
	ID           pgtype.UUID
	OwnerID      string
	FullName     string
	Email        pgtype.Text
	Phone        string
	City         string
	PropertyType string
	Bhk          pgtype.Text
	Purpose      string
	BudgetMin    pgtype.Int8
	BudgetMax    pgtype.Int8
	Timeline     string
	Source       string
	Status       string
	Notes        pgtype.Text
	Tags         []string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type LeadHistory struct {
	ID        pgtype.UUID
	LeadID    pgtype.UUID
	ChangedBy string
	ChangedAt pgtype.Timestamptz
	Diff      []byte
}

type User struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt pgtype.Timestamptz
}
