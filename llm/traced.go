package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Traced は、呼び出しごとに gen_ai のスパンを記録する LLM のデコレータです。
type Traced struct {
	inner  LLM
	system string
	model  string
	tracer trace.Tracer
}

// NewTraced は inner をトレース付きで包みます。tracer が nil ならグローバルのものを使います。
func NewTraced(inner LLM, system, model string, tracer trace.Tracer) *Traced {
	if tracer == nil {
		tracer = otel.Tracer("github.com/sat8bit/chorus/llm")
	}
	return &Traced{inner: inner, system: system, model: model, tracer: tracer}
}

func (t *Traced) Generate(ctx context.Context, input GenerateInput) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.system", t.system),
			attribute.String("gen_ai.request.model", t.model),
			attribute.Int("gen_ai.request.max_tokens", input.maxTokens()),
			attribute.Int("chorus.prompt.system_chars", len(input.System)),
			attribute.Int("chorus.prompt.user_chars", len(input.User)),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := t.inner.Generate(ctx, input)
	span.SetAttributes(attribute.Int64("response_time_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("chorus.response.chars", len(out)))
	return out, nil
}

var _ LLM = &Traced{}
