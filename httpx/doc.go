// Package httpx is the outbound HTTP layer used by the chat providers:
// - a tuned, reusable transport
// - request building with default headers, query parameters and per-request deadlines
// - a single attempt per request; POSTs to model endpoints are never replayed
// - an error type carrying status, request id and a bounded copy of the body
// - hook points for logging and tracing without hard dependencies
package httpx
