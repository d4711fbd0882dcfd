package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// Store implements core.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	q    *Queries
}

var _ core.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: New(pool)}
}

// PoolOptions tunes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// WithTx runs fn in a read-committed transaction. Row locks taken by
// LockLead serialize concurrent writers to the same lead.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txStore{q: s.q.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetLead(ctx context.Context, id uuid.UUID) (core.Lead, error) {
	row, err := s.q.GetLead(ctx, pgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Lead{}, core.ErrNotFound
	}
	if err != nil {
		return core.Lead{}, err
	}
	return leadToCore(row), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := s.q.GetUser(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, err
	}
	return core.User{ID: row.ID, Email: row.Email, FullName: row.FullName}, nil
}

func (s *Store) CountLeads(ctx context.Context, f core.Filter) (int, error) {
	whereClause, args := leadWhere(f).Build()
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads l"+whereClause, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (s *Store) ListLeads(ctx context.Context, f core.Filter, limit, offset int) ([]core.LeadSummary, error) {
	wb := leadWhere(f)
	whereClause, args := wb.Build()

	query := "SELECT " + prefixedLeadColumns + ", u.full_name, u.email" +
		" FROM leads l JOIN users u ON u.id = l.owner_id" + whereClause +
		" ORDER BY l.updated_at DESC, l.id DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := make([]core.LeadSummary, 0, limit)
	for rows.Next() {
		var ownerName, ownerEmail string
		row, err := scanLead(rows, &ownerName, &ownerEmail)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		owner := core.User{Email: ownerEmail, FullName: ownerName}
		out = append(out, core.LeadSummary{
			Lead:       leadToCore(row),
			OwnerName:  owner.DisplayName(),
			OwnerEmail: ownerEmail,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return out, nil
}

// StreamLeads reads matching rows with a single cursor and hands each to fn
// as it arrives, so memory use does not grow with the result size.
func (s *Store) StreamLeads(ctx context.Context, f core.Filter, fn func(core.Lead) error) error {
	whereClause, args := leadWhere(f).Build()
	query := "SELECT " + prefixedLeadColumns + " FROM leads l" + whereClause +
		" ORDER BY l.updated_at DESC, l.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("stream leads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanLead(rows)
		if err != nil {
			return fmt.Errorf("scan lead: %w", err)
		}
		if err := fn(leadToCore(row)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) ListHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	rows, err := s.q.ListLeadHistory(ctx, ListLeadHistoryParams{
		LeadID: pgUUID(leadID),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]core.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, historyToCore(r))
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const prefixedLeadColumns = `l.id, l.owner_id, l.full_name, l.email, l.phone, l.city, l.property_type,
	l.bhk, l.purpose, l.budget_min, l.budget_max, l.timeline, l.source, l.status, l.notes,
	l.tags, l.created_at, l.updated_at`

type txStore struct {
	q *Queries
}

func (t *txStore) UpsertUser(ctx context.Context, u core.User) error {
	return t.q.UpsertUser(ctx, UpsertUserParams{ID: u.ID, Email: u.Email, FullName: u.FullName})
}

func (t *txStore) InsertLead(ctx context.Context, l core.Lead) error {
	return t.q.InsertLead(ctx, insertParams(l))
}

func (t *txStore) LockLead(ctx context.Context, id uuid.UUID) (core.Lead, error) {
	row, err := t.q.LockLead(ctx, pgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Lead{}, core.ErrNotFound
	}
	if err != nil {
		return core.Lead{}, fmt.Errorf("lock lead: %w", err)
	}
	return leadToCore(row), nil
}

func (t *txStore) UpdateLead(ctx context.Context, l core.Lead, expected time.Time) error {
	n, err := t.q.UpdateLead(ctx, updateParams(l, expected))
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if n == 0 {
		return core.ErrConflict
	}
	return nil
}

func (t *txStore) DeleteLead(ctx context.Context, id uuid.UUID) error {
	n, err := t.q.DeleteLead(ctx, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (t *txStore) AppendHistory(ctx context.Context, h core.HistoryEntry) error {
	return t.q.AppendHistory(ctx, AppendHistoryParams{
		ID:        pgUUID(h.ID),
		LeadID:    pgUUID(h.LeadID),
		ChangedBy: h.ChangedBy,
		ChangedAt: pgTime(h.ChangedAt),
		Diff:      h.Diff,
	})
}
