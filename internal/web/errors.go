package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is always logged with the request id. The client gets
// the mapped core.UserMessage: JSON for API callers, an HTML fragment for
// HTMX. Validation failures carry the per-field messages; rate-limit failures
// carry Retry-After.

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/leadbook/internal/core"
	"github.com/JonMunkholm/leadbook/internal/logging"
	"github.com/JonMunkholm/leadbook/internal/web/templates"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  []core.FieldError `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		ve *core.ValidationError
		re *core.RateLimitError
		be *core.BatchSizeError
		mb *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &re):
		return http.StatusTooManyRequests
	case errors.As(err, &be):
		if be.Rows == 0 {
			return http.StatusBadRequest
		}
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	var re *core.RateLimitError
	if errors.As(err, &re) {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(re)))
	}

	var fields []core.FieldError
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		fields = ve.Errors
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, fields).Render(r.Context(), w); err != nil {
			logger.Error("render error alert", "error", err)
		}
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Fields:  fields,
	})
}

func retryAfterSeconds(re *core.RateLimitError) int {
	secs := int(math.Ceil(re.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// isHTMX reports whether the request came from htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
