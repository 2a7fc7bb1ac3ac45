package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Chat is a stateless session bound to one Config and Transport.
//
// Implementations are safe for concurrent use. SetSystemPrompt takes effect on
// the next GetInference call; a call in flight keeps the prompt it started with.
type Chat interface {
	ProviderNamer

	SetSystemPrompt(prompt string)

	// GetInference sends history and returns the model's reply in vendor
	// order. The reply never contains a ToolResult.
	GetInference(ctx context.Context, history []Message, choice ToolChoice) ([]Message, error)
}

// SystemPrompt is a lock-guarded prompt string embedded by Chat
// implementations. The zero value is an empty prompt.
type SystemPrompt struct {
	mu     sync.RWMutex
	prompt string
}

func (s *SystemPrompt) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Snapshot returns the prompt as of now.
func (s *SystemPrompt) Snapshot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// TransportRequest is one POST of a JSON body.
type TransportRequest struct {
	URL    string
	Header http.Header
	Query  url.Values
	Body   []byte

	// Timeout bounds the round trip when non-zero.
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs the HTTP round trip for a Chat.
//
// Post returns a response for every HTTP status, including non-2xx, and an
// error only when no response was obtained. It must not retry.
type Transport interface {
	Post(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*TransportResponse, error)

func (f TransportFunc) Post(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// ValidateHistory rejects empty histories, nil entries and unknown roles.
func ValidateHistory(history []Message) error {
	if len(history) == 0 {
		return ErrEmptyHistory
	}
	for i, m := range history {
		switch v := m.(type) {
		case Text:
			if !v.Role.Valid() {
				return fmt.Errorf("%w: history[%d] has role %q", ErrInvalidHistory, i, v.Role)
			}
		case ToolCall, ToolResult:
		default:
			return fmt.Errorf("%w: history[%d] is %s", ErrInvalidHistory, i, Describe(m))
		}
	}
	return nil
}
