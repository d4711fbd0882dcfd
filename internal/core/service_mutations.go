package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Create validates in and stores a new lead owned by actor. The user upsert,
// the insert, and the "created" history entry commit together.
func (s *Service) Create(ctx context.Context, actor User, in LeadInput) (Lead, error) {
	actor, err := checkActor(actor)
	if err != nil {
		return Lead{}, err
	}
	if err := s.checkRate(ctx, actor); err != nil {
		return Lead{}, err
	}

	fields, err := ValidateCreate(in)
	if err != nil {
		return Lead{}, err
	}

	now := s.timestamp()
	lead := Lead{
		ID:         uuid.New(),
		OwnerID:    actor.ID,
		LeadFields: fields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.UpsertUser(ctx, actor); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		if err := tx.InsertLead(ctx, lead); err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		return appendSnapshot(ctx, tx, ActionCreated, lead, actor.ID, now)
	})
	if err != nil {
		return Lead{}, wrapSystem("create lead", err)
	}

	slog.Info("lead created",
		"lead_id", lead.ID,
		"actor", actor.ID,
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	return lead, nil
}

// Update applies patch to lead id on behalf of actor. expected is the
// updatedAt the caller last observed; if the stored value differs the update
// fails with ErrConflict and nothing is written.
//
// The row is locked for the whole check-validate-write sequence and the write
// itself is conditional on the expected version, so two concurrent updates
// carrying the same version cannot both succeed.
func (s *Service) Update(ctx context.Context, actor User, id uuid.UUID, expected time.Time, patch LeadPatch) (Lead, error) {
	actor, err := checkActor(actor)
	if err != nil {
		return Lead{}, err
	}
	if err := s.checkRate(ctx, actor); err != nil {
		return Lead{}, err
	}
	expected = CanonicalTime(expected)

	var (
		updated Lead
		diff    Diff
	)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockLead(ctx, id)
		if err != nil {
			return err
		}
		if current.OwnerID != actor.ID {
			return ErrForbidden
		}
		if !CanonicalTime(current.UpdatedAt).Equal(expected) {
			return ErrConflict
		}

		changes, err := ValidatePatch(patch)
		if err != nil {
			return err
		}

		merged := current
		merged.LeadFields = cloneFields(current.LeadFields)
		changes.Apply(&merged.LeadFields)
		if err := CheckRecord(merged.LeadFields); err != nil {
			return err
		}

		diff = ComputeDiff(current.LeadFields, changes)
		merged.UpdatedAt = s.nextVersion(current.UpdatedAt)

		if err := tx.UpdateLead(ctx, merged, expected); err != nil {
			return err
		}
		if !diff.Empty() {
			payload, err := json.Marshal(diff)
			if err != nil {
				return fmt.Errorf("encode diff: %w", err)
			}
			if err := tx.AppendHistory(ctx, HistoryEntry{
				ID:        uuid.New(),
				LeadID:    id,
				ChangedBy: actor.ID,
				ChangedAt: merged.UpdatedAt,
				Diff:      payload,
			}); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}
		updated = merged
		return nil
	})
	if err != nil {
		return Lead{}, wrapSystem("update lead", err)
	}

	slog.Info("lead updated",
		"lead_id", id,
		"actor", actor.ID,
		"fields_changed", len(diff),
	)
	return updated, nil
}

// Delete permanently removes lead id. History rows go with it.
func (s *Service) Delete(ctx context.Context, actor User, id uuid.UUID) error {
	actor, err := checkActor(actor)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockLead(ctx, id)
		if err != nil {
			return err
		}
		if current.OwnerID != actor.ID {
			return ErrForbidden
		}
		return tx.DeleteLead(ctx, id)
	})
	if err != nil {
		return wrapSystem("delete lead", err)
	}

	slog.Info("lead deleted", "lead_id", id, "actor", actor.ID)
	return nil
}

func appendSnapshot(ctx context.Context, tx Tx, action string, lead Lead, actorID string, at time.Time) error {
	payload, err := snapshotDiff(action, lead)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", action, err)
	}
	if err := tx.AppendHistory(ctx, HistoryEntry{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		ChangedBy: actorID,
		ChangedAt: at,
		Diff:      payload,
	}); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// cloneFields deep-copies the pointer and set members of lf.
func cloneFields(lf LeadFields) LeadFields {
	out := lf
	out.BudgetMin = copyInt(lf.BudgetMin)
	out.BudgetMax = copyInt(lf.BudgetMax)
	out.Tags = NewTagSet(lf.Tags.Sorted()...)
	return out
}
