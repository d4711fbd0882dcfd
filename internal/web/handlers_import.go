package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/leadbook/internal/core"
	"github.com/JonMunkholm/leadbook/internal/web/templates"
)

// importRequest is the JSON form of an import: one object per row, keyed by
// column name.
type importRequest struct {
	Rows []map[string]any `json:"rows"`
}

// handleImport serves POST /api/leads/import. The body may be a multipart
// form with a "file" part, a raw text/csv body, or an application/json
// importRequest.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Import.Timeout)
		defer cancel()
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	user := actor(r)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		report core.ImportReport
		err    error
	)
	switch mediaType {
	case "multipart/form-data":
		report, err = s.importMultipart(ctx, r, user)
	case "application/json":
		report, err = s.importJSON(ctx, r, user)
	default:
		report, err = s.service.ImportCSV(ctx, user, r.Body)
	}
	if err != nil {
		s.respondError(w, r, importError(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportReport(report).Render(r.Context(), w); err != nil {
			logFromRequest(r).Error("render import report", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) importMultipart(ctx context.Context, r *http.Request, user core.User) (core.ImportReport, error) {
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		return core.ImportReport{}, fmt.Errorf("parse form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		return core.ImportReport{}, fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	return s.service.ImportCSV(ctx, user, file)
}

func (s *Server) importJSON(ctx context.Context, r *http.Request, user core.User) (core.ImportReport, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req importRequest
	if err := dec.Decode(&req); err != nil {
		return core.ImportReport{}, fmt.Errorf("decode rows: %w", err)
	}

	rows := make([]core.RawRow, len(req.Rows))
	for i, obj := range req.Rows {
		values := make(map[string]string, len(obj))
		for k, v := range obj {
			values[k] = cellText(v)
		}
		rows[i] = core.RawRow{Line: i + 1, Values: values}
	}
	return s.service.ImportRows(ctx, user, rows)
}

// cellText flattens a decoded JSON value to the text a CSV cell would hold.
// Arrays become comma-separated lists, which is how tags are written.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, cellText(e))
		}
		return strings.Join(parts, ",")
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// importError classifies failures that are the client's fault. Anything the
// service did not already type, and which is not a server-side failure,
// is a malformed upload.
func importError(err error) error {
	var mb *http.MaxBytesError
	if errors.As(err, &mb) {
		return fmt.Errorf("file too large: %w", err)
	}
	var se *core.SystemError
	switch {
	case errors.As(err, &se),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		statusFor(err) != http.StatusInternalServerError:
		return err
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

// handleImportTemplate serves the CSV template with example rows.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads_import_template.csv"`)
	if err := core.WriteTemplate(w); err != nil {
		logFromRequest(r).Error("write import template", "error", err)
	}
}
