package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ai-gentic/apprentice/llm"

// StartInferenceSpan opens the span wrapping one GetInference round trip.
// It uses the global tracer provider, which is a no-op until one is installed.
func StartInferenceSpan(ctx context.Context, cfg Config, history int, choice ToolChoice) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "llm.GetInference",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", string(cfg.Provider)),
			attribute.String("llm.model", cfg.Model),
			attribute.Int("llm.history.length", history),
			attribute.String("llm.tool_choice", choice.String()),
		),
	)
}

// EndInferenceSpan records the outcome and ends span.
func EndInferenceSpan(span trace.Span, out []Message, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		if te, ok := AsTransportError(err); ok && te.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", te.StatusCode))
		}
	} else {
		calls := 0
		for _, m := range out {
			if _, ok := m.(ToolCall); ok {
				calls++
			}
		}
		span.SetAttributes(
			attribute.Int("llm.response.length", len(out)),
			attribute.Int("llm.response.tool_calls", calls),
		)
	}
	span.End()
}
