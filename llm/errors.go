package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnsupportedProvider      = errors.New("llm: unsupported provider")
	ErrEmptyHistory             = errors.New("llm: history is empty")
	ErrInvalidHistory           = errors.New("llm: invalid history")
	ErrTransport                = errors.New("llm: transport failure")
	ErrUnrecognizedResponse     = errors.New("llm: unrecognized response")
	ErrInvalidRoleForResponse   = errors.New("llm: invalid role for response")
	ErrMissingRequiredParameter = errors.New("llm: missing required parameter")
)

type ErrorKind string

const (
	ErrKindConfig              ErrorKind = "config"
	ErrKindUnsupportedProvider ErrorKind = "unsupported_provider"
	ErrKindEmptyHistory        ErrorKind = "empty_history"
	ErrKindInvalidHistory      ErrorKind = "invalid_history"
	ErrKindTransport           ErrorKind = "transport"
	ErrKindUnrecognized        ErrorKind = "unrecognized_response"
	ErrKindInvalidRole         ErrorKind = "invalid_role_for_response"
	ErrKindMissingParameter    ErrorKind = "missing_required_parameter"
	ErrKindUnknown             ErrorKind = "unknown"
)

// KindOf classifies err into one of the error kinds of this package.
func KindOf(err error) ErrorKind {
	var ce *ConfigError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedProvider):
		return ErrKindUnsupportedProvider
	case errors.As(err, &ce):
		return ErrKindConfig
	case errors.Is(err, ErrEmptyHistory):
		return ErrKindEmptyHistory
	case errors.Is(err, ErrInvalidHistory):
		return ErrKindInvalidHistory
	case errors.Is(err, ErrTransport):
		return ErrKindTransport
	case errors.Is(err, ErrInvalidRoleForResponse):
		return ErrKindInvalidRole
	case errors.Is(err, ErrUnrecognizedResponse):
		return ErrKindUnrecognized
	case errors.Is(err, ErrMissingRequiredParameter):
		return ErrKindMissingParameter
	default:
		return ErrKindUnknown
	}
}

type ConfigErrorKind string

const (
	ConfigMissingField        ConfigErrorKind = "missing-field"
	ConfigInvalidURL          ConfigErrorKind = "invalid-url"
	ConfigUnsupportedProvider ConfigErrorKind = "unsupported-provider"
	ConfigInvalidValue        ConfigErrorKind = "invalid-value"
)

// ConfigError reports an invalid or missing Config field.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case ConfigMissingField:
		return fmt.Sprintf("llm config: %s is required", e.Field)
	case ConfigUnsupportedProvider:
		return fmt.Sprintf("llm config: unsupported provider %q", e.Value)
	default:
		msg := fmt.Sprintf("llm config: %s: %s %q", e.Kind, e.Field, e.Value)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool {
	return target == ErrUnsupportedProvider && e.Kind == ConfigUnsupportedProvider
}

// TransportError is a failed round trip: no response, or a non-2xx status.
//
// Body holds the raw response body when one was received. Message is the
// vendor's error message when the body carried one.
type TransportError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Body       []byte
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s: http %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("llm %s: transport: %s", e.Provider, msg)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ResponseError reports a vendor response the client refuses to interpret.
//
// Err is ErrUnrecognizedResponse or ErrInvalidRoleForResponse. Fragment is the
// offending piece of the body.
type ResponseError struct {
	Provider Provider
	Reason   string
	Fragment []byte
	Err      error
}

func (e *ResponseError) Error() string {
	if len(e.Fragment) > 0 {
		return fmt.Sprintf("llm %s: %v: %s: %s", e.Provider, e.Err, e.Reason, truncate(e.Fragment, 512))
	}
	return fmt.Sprintf("llm %s: %v: %s", e.Provider, e.Err, e.Reason)
}

func (e *ResponseError) Unwrap() error { return e.Err }

func Unrecognized(p Provider, reason string, fragment []byte) *ResponseError {
	return &ResponseError{Provider: p, Reason: reason, Fragment: append([]byte(nil), fragment...), Err: ErrUnrecognizedResponse}
}

func InvalidRole(p Provider, reason string, fragment []byte) *ResponseError {
	return &ResponseError{Provider: p, Reason: reason, Fragment: append([]byte(nil), fragment...), Err: ErrInvalidRoleForResponse}
}

// MissingParameterError reports a vendor-mandatory parameter that is unset
// and has no default.
type MissingParameterError struct {
	Provider  Provider
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("llm %s: missing required parameter %q", e.Provider, e.Parameter)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingRequiredParameter }

func AsTransportError(err error) (*TransportError, bool) {
	var e *TransportError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func AsResponseError(err error) (*ResponseError, bool) {
	var e *ResponseError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
