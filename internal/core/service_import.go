package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RowError reports one rejected import row.
type RowError struct {
	Row    int               `json:"row"`
	Errors []string          `json:"errors"`
	Values map[string]string `json:"values,omitempty"`
}

// ImportReport summarizes an import. Rejected rows never block accepted ones.
type ImportReport struct {
	Total    int        `json:"total"`
	Accepted int        `json:"accepted"`
	Rejected []RowError `json:"rejected"`
}

// ImportCSV reads an import file and imports its rows for actor.
func (s *Service) ImportCSV(ctx context.Context, actor User, r io.Reader) (ImportReport, error) {
	rows, err := ReadCSV(r, s.maxImportRows)
	if err != nil {
		return ImportReport{}, err
	}
	return s.ImportRows(ctx, actor, rows)
}

// ImportRows validates every row independently and commits all valid rows
// in a single transaction owned by actor. Each imported lead gets an
// "imported" history entry. The batch is refused outright when it is empty
// or larger than the configured ceiling.
func (s *Service) ImportRows(ctx context.Context, actor User, rows []RawRow) (ImportReport, error) {
	actor, err := checkActor(actor)
	if err != nil {
		return ImportReport{}, err
	}
	if len(rows) == 0 || len(rows) > s.maxImportRows {
		return ImportReport{}, &BatchSizeError{Rows: len(rows), Max: s.maxImportRows}
	}
	if err := s.checkRate(ctx, actor); err != nil {
		return ImportReport{}, err
	}

	if err := s.imports.Acquire(ctx); err != nil {
		return ImportReport{}, err
	}
	defer s.imports.Release()

	start := time.Now()
	report := ImportReport{Total: len(rows), Rejected: []RowError{}}
	now := s.timestamp()

	var valid []Lead
	for i, row := range rows {
		line := row.Line
		if line <= 0 {
			line = i + 2
		}
		fields, err := ParseRow(row)
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return ImportReport{}, err
			}
			report.Rejected = append(report.Rejected, RowError{
				Row:    line,
				Errors: ve.Messages(),
				Values: row.Values,
			})
			continue
		}
		valid = append(valid, Lead{
			ID:         uuid.New(),
			OwnerID:    actor.ID,
			LeadFields: fields,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if len(valid) > 0 {
		err := s.store.WithTx(ctx, func(tx Tx) error {
			if err := tx.UpsertUser(ctx, actor); err != nil {
				return fmt.Errorf("upsert user: %w", err)
			}
			for _, lead := range valid {
				if err := tx.InsertLead(ctx, lead); err != nil {
					return fmt.Errorf("insert lead %s: %w", lead.ID, err)
				}
				if err := appendSnapshot(ctx, tx, ActionImported, lead, actor.ID, now); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return ImportReport{}, wrapSystem("import leads", err)
		}
	}
	report.Accepted = len(valid)

	slog.Info("import completed",
		"actor", actor.ID,
		"total", report.Total,
		"accepted", report.Accepted,
		"rejected", len(report.Rejected),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}
