// Package transport provides the default llm.Transport, a thin adapter over
// httpx that sends each request once.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ai-gentic/apprentice/httpx"
	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/version"
)

type options struct {
	timeout   time.Duration
	logger    *slog.Logger
	userAgent string
	httpOpts  []httpx.Option
}

type Option func(*options)

// WithTimeout bounds every request. A per-request llm.TransportRequest.Timeout
// or an earlier context deadline wins.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHTTPOptions passes options through to the underlying httpx.Client.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(o *options) { o.httpOpts = append(o.httpOpts, opts...) }
}

// HTTP implements llm.Transport.
type HTTP struct {
	client *httpx.Client
}

var _ llm.Transport = (*HTTP)(nil)

func New(opts ...Option) *HTTP {
	o := options{
		timeout:   httpx.DefaultConfig().Timeout,
		logger:    slog.Default(),
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	httpOpts := append([]httpx.Option{
		httpx.WithTimeout(o.timeout),
		httpx.WithUserAgent(o.userAgent),
	}, o.httpOpts...)

	logger := o.logger
	c := httpx.New(httpOpts...).WithHooks(nil, []httpx.AfterHook{
		func(req *http.Request, resp *http.Response, err error, dur time.Duration) {
			attrs := []any{
				"method", req.Method,
				"host", req.URL.Host,
				"path", req.URL.Path,
				"request_id", req.Header.Get("X-Request-ID"),
				"duration", dur,
			}
			if err != nil {
				logger.DebugContext(req.Context(), "http round trip failed", append(attrs, "error", err)...)
				return
			}
			logger.DebugContext(req.Context(), "http round trip", append(attrs, "status", resp.StatusCode)...)
		},
	})
	return &HTTP{client: c}
}

// Post sends req once and returns the response for any status.
func (t *HTTP) Post(ctx context.Context, req *llm.TransportRequest) (*llm.TransportResponse, error) {
	hreq, err := t.client.NewRequest(ctx, http.MethodPost, req.URL,
		httpx.WithHeaders(req.Header),
		httpx.WithQuery(req.Query),
		httpx.WithBody(req.Body, "application/json"),
		httpx.WithRequestTimeout(req.Timeout),
	)
	if err != nil {
		return nil, err
	}
	resp, raw, err := t.client.DoBytes(hreq)
	if err != nil {
		return nil, err
	}
	return &llm.TransportResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, nil
}
