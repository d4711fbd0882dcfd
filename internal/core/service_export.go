package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// exportFlushEvery bounds how many rows are buffered before a flush.
const exportFlushEvery = 1000

// ExportFilename returns the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("buyers_export_%s.csv", t.Format("2006-01-02"))
}

// Export streams every lead matching f to w as CSV, newest update first.
// There is no row limit. Returns the number of data rows written.
func (s *Service) Export(ctx context.Context, f Filter, w io.Writer) (int, error) {
	start := time.Now()
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	count := 0
	err := s.store.StreamLeads(ctx, f, func(l Lead) error {
		if err := cw.Write(exportRecord(l)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		count++
		if count%exportFlushEvery == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			if fl, ok := w.(interface{ Flush() }); ok {
				fl.Flush()
			}
		}
		return nil
	})
	if err != nil {
		return count, wrapSystem("export leads", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, wrapSystem("export leads", err)
	}

	slog.Info("export completed",
		"rows", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return count, nil
}
