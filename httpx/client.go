package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	httpClient *http.Client

	timeout        time.Duration
	defaultHeaders http.Header
	userAgent      string
	maxBody        int64

	requestID RequestIDConfig

	before []BeforeHook
	after  []AfterHook
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...Option) *Client {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) *Client {
	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	c := &Client{
		httpClient:     &http.Client{Transport: rt},
		timeout:        cfg.Timeout,
		defaultHeaders: cfg.DefaultHeaders.Clone(),
		userAgent:      cfg.UserAgent,
		maxBody:        maxBody,
		requestID:      cfg.RequestID,
	}
	if c.defaultHeaders == nil {
		c.defaultHeaders = make(http.Header)
	}
	if c.requestID.New == nil && c.requestID.Header != "" {
		c.requestID.New = DefaultRequestID
	}
	return c
}

// WithMiddleware wraps the underlying RoundTripper.
// Call it during initialization, before the client is shared.
func (c *Client) WithMiddleware(mws ...Middleware) *Client {
	if len(mws) == 0 {
		return c
	}
	rt := c.httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.httpClient.Transport = chain(rt, mws)
	return c
}

// WithHooks adds hooks run around every request.
func (c *Client) WithHooks(before []BeforeHook, after []AfterHook) *Client {
	c.before = append(c.before, before...)
	c.after = append(c.after, after...)
	return c
}

func withEarlierDeadline(ctx context.Context, timeouts ...time.Duration) (context.Context, context.CancelFunc) {
	var earliest time.Time
	now := time.Now()
	for _, d := range timeouts {
		if d <= 0 {
			continue
		}
		if dl := now.Add(d); earliest.IsZero() || dl.Before(earliest) {
			earliest = dl
		}
	}
	if earliest.IsZero() {
		return ctx, func() {}
	}
	if existing, ok := ctx.Deadline(); ok && !existing.After(earliest) {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, earliest)
}

// Do sends the request exactly once. Like net/http, non-2xx responses are
// returned with a nil error. The deadline stays attached to the response
// body, so the caller must close it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: nil request")
	}
	ctx, cancel := withEarlierDeadline(req.Context(), c.timeout, requestTimeout(req.Context()))
	req = req.Clone(ctx)

	for _, h := range c.before {
		if h == nil {
			continue
		}
		if err := h(req); err != nil {
			cancel()
			return nil, err
		}
	}

	t0 := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(t0)
	if err != nil {
		err = redactCause(err, redactedURL(req))
	}
	for _, h := range c.after {
		if h != nil {
			h(req, resp, err, dur)
		}
	}
	if err != nil {
		cancel()
		return nil, &Error{
			Method:    req.Method,
			URL:       redactedURL(req),
			RequestID: strings.TrimSpace(req.Header.Get(c.requestID.Header)),
			Cause:     err,
		}
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// DoBytes sends the request once and reads at most MaxBodyBytes of the
// response. Every status is returned as a response; only failures to get
// one are errors.
func (c *Client) DoBytes(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return resp, raw, &Error{
			Method:     req.Method,
			URL:        redactedURL(req),
			StatusCode: resp.StatusCode,
			RequestID:  c.responseRequestID(req, resp),
			Cause:      fmt.Errorf("read body: %w", err),
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, raw, nil
}

// DoStatus is DoBytes with non-2xx responses converted into *Error.
func (c *Client) DoStatus(req *http.Request) (*http.Response, []byte, error) {
	resp, raw, err := c.DoBytes(req)
	if err != nil {
		return resp, raw, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, raw, nil
	}
	return resp, raw, &Error{
		Method:     req.Method,
		URL:        redactedURL(req),
		StatusCode: resp.StatusCode,
		RequestID:  c.responseRequestID(req, resp),
		RawBody:    raw,
		Cause:      errors.New(http.StatusText(resp.StatusCode)),
	}
}

func (c *Client) responseRequestID(req *http.Request, resp *http.Response) string {
	if c.requestID.Header == "" {
		return ""
	}
	if rid := strings.TrimSpace(resp.Header.Get(c.requestID.Header)); rid != "" {
		return rid
	}
	return strings.TrimSpace(req.Header.Get(c.requestID.Header))
}

// redactedURL drops the query, which may carry an API key.
func redactedURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}

// redactCause drops the query string from the URL inside net/http's
// *url.Error. Query parameters may carry API keys.
func redactCause(err error, redacted string) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	cp := *ue
	cp.URL = redacted
	return &cp
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
