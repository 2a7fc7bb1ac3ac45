package httpx

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an HTTP or transport error with observability-friendly fields.
type Error struct {
	Method string
	// URL never includes the query string.
	URL string

	// StatusCode is 0 when the request failed before a response arrived.
	StatusCode int

	// RequestID comes from the configured RequestID header.
	RequestID string

	// RawBody is the (bounded) response body for non-2xx responses.
	RawBody []byte

	// Cause is the underlying error.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if m := strings.TrimSpace(e.Method); m != "" {
		b.WriteString(strings.ToUpper(m))
		b.WriteString(" ")
	}
	if u := strings.TrimSpace(e.URL); u != "" {
		b.WriteString(u)
		b.WriteString(": ")
	}
	if e.StatusCode != 0 {
		b.WriteString(fmt.Sprintf("http %d", e.StatusCode))
	} else {
		b.WriteString("request failed")
	}
	if e.RequestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(e.RequestID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

func IsHTTPStatus(err error, code int) bool {
	he, ok := AsError(err)
	return ok && he.StatusCode == code
}

// IsTimeout reports whether the request gave up on a deadline.
func IsTimeout(err error) bool {
	he, ok := AsError(err)
	if !ok || he.StatusCode != 0 {
		return false
	}
	var te interface{ Timeout() bool }
	return errors.As(he.Cause, &te) && te.Timeout()
}
