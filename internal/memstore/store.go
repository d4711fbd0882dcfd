// Package memstore is an in-process core.Store. It backs tests and the
// STORE=memory mode; nothing survives a restart.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/leadbook/internal/core"
)

type state struct {
	users   map[string]core.User
	leads   map[uuid.UUID]core.Lead
	history []core.HistoryEntry
}

func (s *state) clone() *state {
	out := &state{
		users:   make(map[string]core.User, len(s.users)),
		leads:   make(map[uuid.UUID]core.Lead, len(s.leads)),
		history: make([]core.HistoryEntry, len(s.history)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.leads {
		out.leads[k] = cloneLead(v)
	}
	copy(out.history, s.history)
	return out
}

// Store keeps everything in maps behind one mutex. Transactions are
// serialized: WithTx works on a copy and swaps it in only on success.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: &state{
		users: make(map[string]core.User),
		leads: make(map[uuid.UUID]core.Lead),
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) GetLead(_ context.Context, id uuid.UUID) (core.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.st.leads[id]
	if !ok {
		return core.Lead{}, core.ErrNotFound
	}
	return cloneLead(l), nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.st.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) CountLeads(_ context.Context, f core.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matching(f)), nil
}

func (s *Store) ListLeads(_ context.Context, f core.Filter, limit, offset int) ([]core.LeadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads := s.matching(f)
	if offset >= len(leads) {
		return []core.LeadSummary{}, nil
	}
	leads = leads[offset:]
	if limit > 0 && limit < len(leads) {
		leads = leads[:limit]
	}

	out := make([]core.LeadSummary, 0, len(leads))
	for _, l := range leads {
		owner := s.st.users[l.OwnerID]
		out = append(out, core.LeadSummary{
			Lead:       l,
			OwnerName:  owner.DisplayName(),
			OwnerEmail: owner.Email,
		})
	}
	return out, nil
}

// StreamLeads snapshots the matching leads and then calls fn without
// holding the lock, so fn may be slow.
func (s *Store) StreamLeads(ctx context.Context, f core.Filter, fn func(core.Lead) error) error {
	s.mu.Lock()
	leads := s.matching(f)
	s.mu.Unlock()

	for _, l := range leads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListHistory(_ context.Context, leadID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.HistoryEntry
	// Newest first; history is appended in commit order.
	for i := len(s.st.history) - 1; i >= 0; i-- {
		h := s.st.history[i]
		if h.LeadID != leadID {
			continue
		}
		if u, ok := s.st.users[h.ChangedBy]; ok {
			h.ChangedByName = u.DisplayName()
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// matching returns clones of leads accepted by f, ordered by updatedAt
// descending with id as tie-break. Callers hold s.mu.
func (s *Store) matching(f core.Filter) []core.Lead {
	var out []core.Lead
	for _, l := range s.st.leads {
		if f.Matches(l) {
			out = append(out, cloneLead(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}

type tx struct {
	st *state
}

func (t *tx) UpsertUser(_ context.Context, u core.User) error {
	if _, ok := t.st.users[u.ID]; !ok {
		t.st.users[u.ID] = u
	}
	return nil
}

func (t *tx) InsertLead(_ context.Context, l core.Lead) error {
	if _, ok := t.st.users[l.OwnerID]; !ok {
		return errMissingOwner
	}
	if _, ok := t.st.leads[l.ID]; ok {
		return errDuplicateLead
	}
	t.st.leads[l.ID] = cloneLead(l)
	return nil
}

func (t *tx) LockLead(_ context.Context, id uuid.UUID) (core.Lead, error) {
	l, ok := t.st.leads[id]
	if !ok {
		return core.Lead{}, core.ErrNotFound
	}
	return cloneLead(l), nil
}

func (t *tx) UpdateLead(_ context.Context, l core.Lead, expected time.Time) error {
	cur, ok := t.st.leads[l.ID]
	if !ok || !core.CanonicalTime(cur.UpdatedAt).Equal(core.CanonicalTime(expected)) {
		return core.ErrConflict
	}
	l.OwnerID = cur.OwnerID
	l.CreatedAt = cur.CreatedAt
	t.st.leads[l.ID] = cloneLead(l)
	return nil
}

func (t *tx) DeleteLead(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.leads[id]; !ok {
		return core.ErrNotFound
	}
	delete(t.st.leads, id)

	kept := t.st.history[:0]
	for _, h := range t.st.history {
		if h.LeadID != id {
			kept = append(kept, h)
		}
	}
	t.st.history = kept
	return nil
}

func (t *tx) AppendHistory(_ context.Context, h core.HistoryEntry) error {
	if _, ok := t.st.leads[h.LeadID]; !ok {
		return errMissingLead
	}
	h.Diff = append([]byte(nil), h.Diff...)
	t.st.history = append(t.st.history, h)
	return nil
}

func cloneLead(l core.Lead) core.Lead {
	out := l
	if l.BudgetMin != nil {
		v := *l.BudgetMin
		out.BudgetMin = &v
	}
	if l.BudgetMax != nil {
		v := *l.BudgetMax
		out.BudgetMax = &v
	}
	out.Tags = core.NewTagSet(l.Tags.Sorted()...)
	return out
}
