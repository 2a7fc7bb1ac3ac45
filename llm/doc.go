// Package llm provides a provider-agnostic chat interface over vendor LLM APIs.
//
// Design goals:
//   - Stable domain model: callers build conversations from Text, ToolCall and
//     ToolResult messages and pick a ToolChoice per call. Vendor JSON never
//     leaks into these types.
//   - Stateless sessions: a Chat holds a Config, a system prompt and a
//     Transport. History is passed on every GetInference call.
//   - Typed failures: every error returned by a Chat matches one of the
//     sentinel values in this package via errors.Is.
//
// Provider implementations live under llm/providers and own the mapping
// between the canonical model and each vendor's wire format. Use llm/llmchat
// to construct the right one from a Config.
package llm
