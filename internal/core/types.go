package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enumerated domains. Order here is the order shown to users.
var (
	Cities        = []string{"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Other"}
	PropertyTypes = []string{"Apartment", "Villa", "Plot", "Office", "Retail"}
	BHKs          = []string{"1", "2", "3", "4", "Studio"}
	Purposes      = []string{"Buy", "Rent"}
	Timelines     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	Sources       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
	Statuses      = []string{"New", "Qualified", "Contacted", "Visited", "Negotiation", "Converted", "Dropped"}
)

const (
	StatusNew = "New"

	PropertyApartment = "Apartment"
	PropertyVilla     = "Villa"
)

// History actions recorded for snapshot-style entries.
const (
	ActionCreated  = "created"
	ActionImported = "imported"
)

// PageSize is the fixed number of leads per listing page.
const PageSize = 10

// DefaultMaxImportRows is the batch ceiling for a single import.
const DefaultMaxImportRows = 200

// requiresBHK reports whether a property type needs a bedroom category.
func requiresBHK(propertyType string) bool {
	return propertyType == PropertyApartment || propertyType == PropertyVilla
}

// LeadFields holds every user-editable attribute of a lead.
// Optional text fields use the empty string for "absent".
type LeadFields struct {
	FullName     string
	Email        string
	Phone        string
	City         string
	PropertyType string
	BHK          string
	Purpose      string
	BudgetMin    *int64
	BudgetMax    *int64
	Timeline     string
	Source       string
	Notes        string
	Tags         TagSet
	Status       string
}

// Lead is a stored buyer record.
type Lead struct {
	ID      uuid.UUID
	OwnerID string
	LeadFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// leadJSON is the wire shape of a Lead. Absent optional values encode as null.
type leadJSON struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      string    `json:"ownerId"`
	FullName     string    `json:"fullName"`
	Email        *string   `json:"email"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	PropertyType string    `json:"propertyType"`
	BHK          *string   `json:"bhk"`
	Purpose      string    `json:"purpose"`
	BudgetMin    *int64    `json:"budgetMin"`
	BudgetMax    *int64    `json:"budgetMax"`
	Timeline     string    `json:"timeline"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (l Lead) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.wire())
}

func (l Lead) wire() leadJSON {
	return leadJSON{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		FullName:     l.FullName,
		Email:        optionalText(l.Email),
		Phone:        l.Phone,
		City:         l.City,
		PropertyType: l.PropertyType,
		BHK:          optionalText(l.BHK),
		Purpose:      l.Purpose,
		BudgetMin:    l.BudgetMin,
		BudgetMax:    l.BudgetMax,
		Timeline:     l.Timeline,
		Source:       l.Source,
		Status:       l.Status,
		Notes:        optionalText(l.Notes),
		Tags:         l.Tags.Sorted(),
		CreatedAt:    l.CreatedAt.UTC(),
		UpdatedAt:    l.UpdatedAt.UTC(),
	}
}

func (l *Lead) UnmarshalJSON(data []byte) error {
	var w leadJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = Lead{
		ID:      w.ID,
		OwnerID: w.OwnerID,
		LeadFields: LeadFields{
			FullName:     w.FullName,
			Email:        derefText(w.Email),
			Phone:        w.Phone,
			City:         w.City,
			PropertyType: w.PropertyType,
			BHK:          derefText(w.BHK),
			Purpose:      w.Purpose,
			BudgetMin:    w.BudgetMin,
			BudgetMax:    w.BudgetMax,
			Timeline:     w.Timeline,
			Source:       w.Source,
			Notes:        derefText(w.Notes),
			Tags:         NewTagSet(w.Tags...),
			Status:       w.Status,
		},
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	return nil
}

// User mirrors an identity-provider account locally.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// DisplayName returns the full name, falling back to the local part of the email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// LeadSummary is a listing row: the lead plus its owner's display details.
type LeadSummary struct {
	Lead
	OwnerName  string
	OwnerEmail string
}

type ownerJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s LeadSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		leadJSON
		Owner ownerJSON `json:"owner"`
	}{s.Lead.wire(), ownerJSON{Name: s.OwnerName, Email: s.OwnerEmail}})
}

// HistoryEntry is one immutable audit record for a lead.
type HistoryEntry struct {
	ID            uuid.UUID       `json:"id"`
	LeadID        uuid.UUID       `json:"leadId"`
	ChangedBy     string          `json:"changedBy"`
	ChangedByName string          `json:"changedByName,omitempty"`
	ChangedAt     time.Time       `json:"changedAt"`
	Diff          json.RawMessage `json:"diff"`
}

// LeadDetail is a lead with its owner and most recent history.
type LeadDetail struct {
	Lead    Lead           `json:"lead"`
	Owner   User           `json:"owner"`
	History []HistoryEntry `json:"history"`
}

// ListResult is one page of leads.
type ListResult struct {
	Leads      []LeadSummary `json:"leads"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int           `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
}

// Store is the storage contract used by Service. Implementations must run
// WithTx callbacks atomically with at least read-committed isolation.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
	GetUser(ctx context.Context, id string) (User, error)
	CountLeads(ctx context.Context, f Filter) (int, error)
	ListLeads(ctx context.Context, f Filter, limit, offset int) ([]LeadSummary, error)
	StreamLeads(ctx context.Context, f Filter, fn func(Lead) error) error
	ListHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]HistoryEntry, error)
	Ping(ctx context.Context) error
}

// Tx is the set of writes available inside a Store transaction.
type Tx interface {
	// UpsertUser inserts the user if no row with that id exists.
	UpsertUser(ctx context.Context, u User) error
	InsertLead(ctx context.Context, l Lead) error
	// LockLead loads a lead and holds a row lock until the transaction ends.
	// Returns ErrNotFound if the lead does not exist.
	LockLead(ctx context.Context, id uuid.UUID) (Lead, error)
	// UpdateLead writes l only if the stored updatedAt equals expected.
	// Returns ErrConflict when no row matched.
	UpdateLead(ctx context.Context, l Lead, expected time.Time) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
	AppendHistory(ctx context.Context, h HistoryEntry) error
}
