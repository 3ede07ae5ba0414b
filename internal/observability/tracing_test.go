package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingWithoutEndpoint(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)

	_, span := StartGenerateSpan(context.Background(), "ollama", "mistral-7b-instruct", "mr-boz")
	RecordLLMMetrics(span, 100, 20, 1500*time.Millisecond)
	RecordError(span, errors.New("cuda out of memory"))
	span.End()

	_, load := StartLoadSpan(context.Background(), "ollama", "mistralai/Mistral-7B-Instruct-v0.1", "cuda")
	RecordError(load, nil)
	load.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	gen := spans[0]
	assert.Equal(t, "llm.generate", gen.Name())
	assert.Equal(t, codes.Error, gen.Status().Code)
	assert.Contains(t, gen.Attributes(), attribute.Int("llm.total_tokens", 120))
	assert.Contains(t, gen.Attributes(), attribute.String("chat.character", "mr-boz"))

	assert.Equal(t, "model.load", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}
