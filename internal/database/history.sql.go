package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const appendHistory = `-- name: AppendHistory :exec
INSERT INTO lead_history (id, lead_id, changed_by, changed_at, diff)
VALUES ($1, $2, $3, $4, $5)
`

type AppendHistoryParams struct {
	ID        pgtype.UUID
	LeadID    pgtype.UUID
	ChangedBy string
	ChangedAt pgtype.Timestamptz
	Diff      []byte
}

func (q *Queries) AppendHistory(ctx context.Context, arg AppendHistoryParams) error {
	_, err := q.db.Exec(ctx, appendHistory,
		arg.ID,
		arg.LeadID,
		arg.ChangedBy,
		arg.ChangedAt,
		arg.Diff,
	)
	return err
}

const listLeadHistory = `-- name: ListLeadHistory :many
SELECT h.id, h.lead_id, h.changed_by, h.changed_at, h.diff, u.full_name, u.email
FROM lead_history h
LEFT JOIN users u ON u.id = h.changed_by
WHERE h.lead_id = $1
ORDER BY h.changed_at DESC, h.id DESC
LIMIT NULLIF($2::int, 0)
`

type ListLeadHistoryParams struct {
	LeadID pgtype.UUID
	Limit  int32
}

type ListLeadHistoryRow struct {
	ID        pgtype.UUID
	LeadID    pgtype.UUID
	ChangedBy string
	ChangedAt pgtype.Timestamptz
	Diff      []byte
	FullName  pgtype.Text
	Email     pgtype.Text
}

// ListLeadHistory returns entries newest first. A zero Limit returns all.
func (q *Queries) ListLeadHistory(ctx context.Context, arg ListLeadHistoryParams) ([]ListLeadHistoryRow, error) {
	rows, err := q.db.Query(ctx, listLeadHistory, arg.LeadID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLeadHistoryRow
	for rows.Next() {
		var i ListLeadHistoryRow
		if err := rows.Scan(
			&i.ID,
			&i.LeadID,
			&i.ChangedBy,
			&i.ChangedAt,
			&i.Diff,
			&i.FullName,
			&i.Email,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
