package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// NetworkError is returned when a request never produced an HTTP response:
// connection failures, DNS errors, cancelled or expired contexts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is returned when the backend answered with a non-2xx status, or
// with a 2xx body that could not be decoded.
type HTTPError struct {
	Op      string
	Status  int
	Code    string // backend "error" field, e.g. "Invalid URL"
	Message string // backend "message" field, shown to the user
	cause   error
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, msg)
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

// ValidationError is returned when input fails a local constraint. No
// request is sent when it occurs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.join(func(field string) string { return field })
}

// display is the message shown to users, with fields under their labels.
func (e *ValidationError) display() string {
	return e.join(fieldLabel)
}

func (e *ValidationError) join(label func(string) string) string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, label(k)+" "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

var fieldLabels = map[string]string{
	"url": "URL",
	"id":  "ID",
}

func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return capitalize(field)
}

// Field returns the message recorded for field, if any.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Message returns the single user-facing message for err: the local
// validation text, the backend's message, or fallback when neither exists.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.display()
	}
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsValidation reports whether err was raised locally before any request.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func statusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
