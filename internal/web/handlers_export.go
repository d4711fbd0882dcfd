package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// handleExport streams every lead matching the list filters as CSV. Paging
// is ignored. Once the first byte reaches the client the status is fixed, so
// later failures are only logged and the download is truncated.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFilename(time.Now())+`"`)

	cw := &countingWriter{ResponseWriter: w}
	rows, err := s.service.Export(r.Context(), f, cw)
	if err == nil {
		return
	}
	if cw.written == 0 {
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, err)
		return
	}
	logFromRequest(r).Error("export failed",
		"rows_written", rows,
		"bytes_sent", cw.written,
		"error", err,
	)
}

// countingWriter records how many body bytes reached the underlying writer.
type countingWriter struct {
	http.ResponseWriter
	written int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.ResponseWriter.Write(p)
	c.written += int64(n)
	return n, err
}

func (c *countingWriter) Flush() {
	if fl, ok := c.ResponseWriter.(http.Flusher); ok {
		fl.Flush()
	}
}
