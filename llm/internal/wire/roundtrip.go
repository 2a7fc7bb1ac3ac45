package wire

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ai-gentic/apprentice/llm"
)

// Call is one marshalled request ready for a Transport.
type Call struct {
	Provider llm.Provider
	URL      string
	Header   http.Header
	Query    url.Values
	Payload  any
	Timeout  time.Duration

	// ErrorMessage extracts the vendor's error message from a body, if any.
	ErrorMessage func(body []byte) string
}

// RoundTrip encodes c.Payload, posts it and returns the 2xx body.
//
// A missing response or a non-2xx status becomes *llm.TransportError.
func RoundTrip(ctx context.Context, tr llm.Transport, logger *slog.Logger, c Call) ([]byte, error) {
	body, err := json.Marshal(c.Payload)
	if err != nil {
		return nil, &llm.TransportError{Provider: c.Provider, Message: "encode request", Cause: err}
	}

	hdr := c.Header.Clone()
	if hdr == nil {
		hdr = make(http.Header)
	}
	if hdr.Get("Content-Type") == "" {
		hdr.Set("Content-Type", "application/json")
	}
	if hdr.Get("Accept") == "" {
		hdr.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := tr.Post(ctx, &llm.TransportRequest{
		URL:     c.URL,
		Header:  hdr,
		Query:   c.Query,
		Body:    body,
		Timeout: c.Timeout,
	})
	if err != nil {
		logger.DebugContext(ctx, "llm request failed",
			"provider", c.Provider,
			"url", c.URL,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, &llm.TransportError{Provider: c.Provider, Cause: err}
	}
	if resp == nil {
		return nil, &llm.TransportError{Provider: c.Provider, Message: "transport returned no response"}
	}

	logger.DebugContext(ctx, "llm request",
		"provider", c.Provider,
		"url", c.URL,
		"status", resp.StatusCode,
		"request_bytes", len(body),
		"response_bytes", len(resp.Body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &llm.TransportError{
			Provider:   c.Provider,
			StatusCode: resp.StatusCode,
			Body:       append([]byte(nil), resp.Body...),
		}
		if c.ErrorMessage != nil {
			te.Message = c.ErrorMessage(resp.Body)
		}
		return nil, te
	}
	return resp.Body, nil
}

// Decode unmarshals a response body, reporting failures as unrecognized.
func Decode(p llm.Provider, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return llm.Unrecognized(p, "response is not valid JSON: "+err.Error(), body)
	}
	return nil
}
