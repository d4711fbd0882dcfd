package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/leadbook/internal/core"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgInt8(n *int64) pgtype.Int8 {
	if n == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *n, Valid: true}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: core.CanonicalTime(t), Valid: true}
}

func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func int8Ptr(n pgtype.Int8) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timeValue(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func tagSlice(t core.TagSet) []string {
	return t.Sorted()
}

func leadToCore(r Lead) core.Lead {
	return core.Lead{
		ID:      uuid.UUID(r.ID.Bytes),
		OwnerID: r.OwnerID,
		LeadFields: core.LeadFields{
			FullName:     r.FullName,
			Email:        textValue(r.Email),
			Phone:        r.Phone,
			City:         r.City,
			PropertyType: r.PropertyType,
			BHK:          textValue(r.Bhk),
			Purpose:      r.Purpose,
			BudgetMin:    int8Ptr(r.BudgetMin),
			BudgetMax:    int8Ptr(r.BudgetMax),
			Timeline:     r.Timeline,
			Source:       r.Source,
			Notes:        textValue(r.Notes),
			Tags:         core.NewTagSet(r.Tags...),
			Status:       r.Status,
		},
		CreatedAt: timeValue(r.CreatedAt),
		UpdatedAt: timeValue(r.UpdatedAt),
	}
}

func insertParams(l core.Lead) InsertLeadParams {
	return InsertLeadParams{
		ID:           pgUUID(l.ID),
		OwnerID:      l.OwnerID,
		FullName:     l.FullName,
		Email:        pgText(l.Email),
		Phone:        l.Phone,
		City:         l.City,
		PropertyType: l.PropertyType,
		Bhk:          pgText(l.BHK),
		Purpose:      l.Purpose,
		BudgetMin:    pgInt8(l.BudgetMin),
		BudgetMax:    pgInt8(l.BudgetMax),
		Timeline:     l.Timeline,
		Source:       l.Source,
		Status:       l.Status,
		Notes:        pgText(l.Notes),
		Tags:         tagSlice(l.Tags),
		CreatedAt:    pgTime(l.CreatedAt),
		UpdatedAt:    pgTime(l.UpdatedAt),
	}
}

func updateParams(l core.Lead, expected time.Time) UpdateLeadParams {
	return UpdateLeadParams{
		ID:                pgUUID(l.ID),
		FullName:          l.FullName,
		Email:             pgText(l.Email),
		Phone:             l.Phone,
		City:              l.City,
		PropertyType:      l.PropertyType,
		Bhk:               pgText(l.BHK),
		Purpose:           l.Purpose,
		BudgetMin:         pgInt8(l.BudgetMin),
		BudgetMax:         pgInt8(l.BudgetMax),
		Timeline:          l.Timeline,
		Source:            l.Source,
		Status:            l.Status,
		Notes:             pgText(l.Notes),
		Tags:              tagSlice(l.Tags),
		UpdatedAt:         pgTime(l.UpdatedAt),
		ExpectedUpdatedAt: pgTime(expected),
	}
}

func historyToCore(r ListLeadHistoryRow) core.HistoryEntry {
	name := textValue(r.FullName)
	if name == "" {
		name = core.User{Email: textValue(r.Email)}.DisplayName()
	}
	return core.HistoryEntry{
		ID:            uuid.UUID(r.ID.Bytes),
		LeadID:        uuid.UUID(r.LeadID.Bytes),
		ChangedBy:     r.ChangedBy,
		ChangedByName: name,
		ChangedAt:     timeValue(r.ChangedAt),
		Diff:          r.Diff,
	}
}
