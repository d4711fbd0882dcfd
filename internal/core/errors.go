package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound means the referenced lead does not exist.
	ErrNotFound = errors.New("lead not found")

	// ErrForbidden means the acting user does not own the lead.
	ErrForbidden = errors.New("only the owner can modify this lead")

	// ErrConflict means the lead changed since the caller last read it.
	ErrConflict = errors.New("record modified by another user")

	// ErrUnauthenticated means no acting user was supplied for a mutation.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError carries every field violation found in one validation pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns each violation as "field: message", in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Error()
	}
	return out
}

// RateLimitError means the actor exceeded the mutation rate.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	secs := int(e.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("rate limit exceeded, retry in %ds", secs)
}

// BatchSizeError rejects an import batch before any row is processed.
type BatchSizeError struct {
	Rows int
	Max  int
}

func (e *BatchSizeError) Error() string {
	if e.Rows == 0 {
		return "import contains no rows"
	}
	return fmt.Sprintf("import has %d rows, maximum is %d", e.Rows, e.Max)
}

// SystemError wraps a storage or transport failure.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

// wrapSystem passes domain errors through and wraps everything else as a
// SystemError for op.
func wrapSystem(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		re *RateLimitError
		be *BatchSizeError
		se *SystemError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTooManyImports),
		errors.As(err, &ve), errors.As(err, &re), errors.As(err, &be), errors.As(err, &se):
		return err
	}
	return &SystemError{Op: op, Err: err}
}
