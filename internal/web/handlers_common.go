package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/leadbook/internal/core"
	"github.com/JonMunkholm/leadbook/internal/logging"
)

// maxJSONBody caps JSON request bodies other than imports.
const maxJSONBody = 64 << 10

var errBadRequest = errors.New("invalid request")

// decodeJSON reads a single JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var mb *http.MaxBytesError
		if errors.As(err, &mb) {
			return fmt.Errorf("file too large: %w", err)
		}
		return fmt.Errorf("%w body: %v", errBadRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w body: trailing data", errBadRequest)
	}
	return nil
}

// leadID parses the {id} URL parameter. A malformed id cannot name an
// existing lead, so it reports ErrNotFound.
func leadID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, core.ErrNotFound
	}
	return id, nil
}

// parseFilter reads the shared list/export query parameters.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	return core.NewFilter(
		q.Get("city"),
		q.Get("propertyType"),
		q.Get("status"),
		q.Get("timeline"),
		q.Get("search"),
	)
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// actor returns the user resolved by the identity middleware.
func actor(r *http.Request) core.User {
	u, _ := core.UserFromContext(r.Context())
	return u
}

func logFromRequest(r *http.Request) *slog.Logger {
	return logging.WithFields(r.Context(), "method", r.Method, "path", r.URL.Path)
}
