package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// Domain errors are matched by type first:
//
//	VAL010  - Validation failed (field list attached)
//	LEAD001 - Lead not found
//	LEAD002 - Not the owner of the lead
//	LEAD003 - Lead was modified by someone else
//	AUTH001 - No signed-in user
//	RATE001 - Too many changes in a short time
//	IMP001  - Import batch empty or over the row ceiling
//	IMP002  - Too many imports running
//
// Anything else falls through to substring patterns on the error text
// (case-insensitive, first match wins):
//
//	DB001-DB007   - Database constraint and connection failures
//	FILE001-FILE004 - Upload file problems
//	REQ001-REQ003 - Cancelled, timed-out, or malformed requests
//
// ERR000 is the fallback. Support staff should check the application log for
// the technical error, which is always logged with the request id.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A record with this ID already exists", "Refresh and try again", "DB001"}},
	{"violates check constraint", UserMessage{"A value is outside its allowed range", "Review the highlighted fields", "DB002"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Refresh the page; the record may have been deleted", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with a header row", "FILE002"}},
	{"missing required columns", UserMessage{"Required column is missing from CSV", "Download the template and match its headers", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},

	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "REQ002"}},
	{"invalid request", UserMessage{"The request could not be read", "Check the request format and try again", "REQ003"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		ve *ValidationError
		re *RateLimitError
		be *BatchSizeError
	)
	switch {
	case errors.As(err, &ve):
		return UserMessage{Message: "Some fields are invalid", Action: strings.Join(ve.Messages(), "; "), Code: "VAL010"}
	case errors.Is(err, ErrNotFound):
		return UserMessage{Message: "Lead not found", Action: "It may have been deleted; return to the list", Code: "LEAD001"}
	case errors.Is(err, ErrForbidden):
		return UserMessage{Message: "You can only change leads you own", Action: "Ask the owner to make this change", Code: "LEAD002"}
	case errors.Is(err, ErrConflict):
		return UserMessage{Message: "This lead was modified by another user", Action: "Reload the lead and apply your changes again", Code: "LEAD003"}
	case errors.Is(err, ErrUnauthenticated):
		return UserMessage{Message: "You need to sign in", Action: "Sign in and try again", Code: "AUTH001"}
	case errors.As(err, &re):
		return UserMessage{Message: "Too many changes in a short time", Action: re.Error(), Code: "RATE001"}
	case errors.As(err, &be):
		return UserMessage{Message: be.Error(), Action: fmt.Sprintf("Import at most %d rows per file", be.Max), Code: "IMP001"}
	case errors.Is(err, ErrTooManyImports):
		return UserMessage{Message: "System is busy processing other imports", Action: "Please wait a moment and try again", Code: "IMP002"}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
