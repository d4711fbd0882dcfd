package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const leadColumns = `id, owner_id, full_name, email, phone, city, property_type, bhk, purpose,
	budget_min, budget_max, timeline, source, status, notes, tags, created_at, updated_at`

const getLead = `-- name: GetLead :one
SELECT ` + leadColumns + ` FROM leads
WHERE id = $1
`

func (q *Queries) GetLead(ctx context.Context, id pgtype.UUID) (Lead, error) {
	row := q.db.QueryRow(ctx, getLead, id)
	return scanLead(row)
}

const lockLead = `-- name: LockLead :one
SELECT ` + leadColumns + ` FROM leads
WHERE id = $1
FOR UPDATE
`

func (q *Queries) LockLead(ctx context.Context, id pgtype.UUID) (Lead, error) {
	row := q.db.QueryRow(ctx, lockLead, id)
	return scanLead(row)
}

const insertLead = `-- name: InsertLead :exec
INSERT INTO leads (
	id, owner_id, full_name, email, phone, city, property_type, bhk, purpose,
	budget_min, budget_max, timeline, source, status, notes, tags, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
`

type InsertLeadParams struct {
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

func (q *Queries) InsertLead(ctx context.Context, arg InsertLeadParams) error {
	_, err := q.db.Exec(ctx, insertLead,
		arg.ID,
		arg.OwnerID,
		arg.FullName,
		arg.Email,
		arg.Phone,
		arg.City,
		arg.PropertyType,
		arg.Bhk,
		arg.Purpose,
		arg.BudgetMin,
		arg.BudgetMax,
		arg.Timeline,
		arg.Source,
		arg.Status,
		arg.Notes,
		arg.Tags,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updateLead = `-- name: UpdateLead :execrows
UPDATE leads SET
	full_name = $2,
	email = $3,
	phone = $4,
	city = $5,
	property_type = $6,
	bhk = $7,
	purpose = $8,
	budget_min = $9,
	budget_max = $10,
	timeline = $11,
	source = $12,
	status = $13,
	notes = $14,
	tags = $15,
	updated_at = $16
WHERE id = $1 AND updated_at = $17
`

type UpdateLeadParams struct {
	ID                pgtype.UUID
	FullName          string
	Email             pgtype.Text
	Phone             string
	City              string
	PropertyType      string
	Bhk               pgtype.Text
	Purpose           string
	BudgetMin         pgtype.Int8
	BudgetMax         pgtype.Int8
	Timeline          string
	Source            string
	Status            string
	Notes             pgtype.Text
	Tags              []string
	UpdatedAt         pgtype.Timestamptz
	ExpectedUpdatedAt pgtype.Timestamptz
}

func (q *Queries) UpdateLead(ctx context.Context, arg UpdateLeadParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateLead,
		arg.ID,
		arg.FullName,
		arg.Email,
		arg.Phone,
		arg.City,
		arg.PropertyType,
		arg.Bhk,
		arg.Purpose,
		arg.BudgetMin,
		arg.BudgetMax,
		arg.Timeline,
		arg.Source,
		arg.Status,
		arg.Notes,
		arg.Tags,
		arg.UpdatedAt,
		arg.ExpectedUpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteLead = `-- name: DeleteLead :execrows
DELETE FROM leads
WHERE id = $1
`

func (q *Queries) DeleteLead(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteLead, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner, extra ...any) (Lead, error) {
	var i Lead
	dest := []any{
		&i.ID,
		&i.OwnerID,
		&i.FullName,
		&i.Email,
		&i.Phone,
		&i.City,
		&i.PropertyType,
		&i.Bhk,
		&i.Purpose,
		&i.BudgetMin,
		&i.BudgetMax,
		&i.Timeline,
		&i.Source,
		&i.Status,
		&i.Notes,
		&i.Tags,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return i, err
}
