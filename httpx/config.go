package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Use DefaultConfig() as a baseline.
type Config struct {
	// Timeout bounds each request. If the request context already has an
	// earlier deadline, that one wins.
	Timeout time.Duration

	// Transport is the underlying RoundTripper. If nil, a tuned default is used.
	Transport http.RoundTripper

	// DefaultHeaders are copied into every request (caller headers win).
	DefaultHeaders http.Header

	// UserAgent is set when the request does not already carry one.
	UserAgent string

	// MaxBodyBytes caps how much of a response body is read. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RequestID configures correlation id propagation.
	RequestID RequestIDConfig
}

// DefaultMaxBodyBytes is large enough for a full completion with tool calls.
const DefaultMaxBodyBytes int64 = 8 << 20 // 8MiB

// DefaultConfig returns a baseline suitable for calls to hosted model APIs.
func DefaultConfig() Config {
	return Config{
		Timeout:        120 * time.Second,
		Transport:      DefaultTransport(),
		DefaultHeaders: make(http.Header),
		MaxBodyBytes:   DefaultMaxBodyBytes,
		RequestID:      DefaultRequestIDConfig(),
	}
}
