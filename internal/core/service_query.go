package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// List returns one page of leads matching f, most recently updated first.
// Pages are 1-indexed; page < 1 is treated as 1. A page past the end is
// returned empty with the real totals.
func (s *Service) List(ctx context.Context, f Filter, page int) (ListResult, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.CountLeads(ctx, f)
	if err != nil {
		return ListResult{}, wrapSystem("count leads", err)
	}

	result := ListResult{
		Page:       page,
		PageSize:   PageSize,
		TotalCount: total,
		TotalPages: (total + PageSize - 1) / PageSize,
		Leads:      []LeadSummary{},
	}
	if total == 0 {
		return result, nil
	}

	leads, err := s.store.ListLeads(ctx, f, PageSize, (page-1)*PageSize)
	if err != nil {
		return ListResult{}, wrapSystem("list leads", err)
	}
	if leads != nil {
		result.Leads = leads
	}
	return result, nil
}

// Get returns a lead with its owner and most recent history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (LeadDetail, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return LeadDetail{}, wrapSystem("get lead", err)
	}

	owner, err := s.store.GetUser(ctx, lead.OwnerID)
	switch {
	case errors.Is(err, ErrNotFound):
		owner = User{ID: lead.OwnerID}
	case err != nil:
		return LeadDetail{}, &SystemError{Op: "get owner", Err: fmt.Errorf("owner %s: %w", lead.OwnerID, err)}
	}

	history, err := s.store.ListHistory(ctx, id, s.historyPreview)
	if err != nil {
		return LeadDetail{}, wrapSystem("list history", err)
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	return LeadDetail{Lead: lead, Owner: owner, History: history}, nil
}

// History returns every history entry for a lead, newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.store.GetLead(ctx, id); err != nil {
		return nil, wrapSystem("get lead", err)
	}
	entries, err := s.store.ListHistory(ctx, id, 0)
	if err != nil {
		return nil, wrapSystem("list history", err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}
