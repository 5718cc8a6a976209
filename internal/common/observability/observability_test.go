package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_WithoutJaeger(t *testing.T) {
	o, err := New(Options{ServiceName: "prism-workers-test"})
	require.NoError(t, err)
	defer o.Shutdown()

	ctx, end := o.StartSpan(context.Background(), "curate-evidence", 1)
	assert.NotNil(t, ctx)
	end(nil)

	o.RecordJobProcessed(ctx, "completed")
	o.RecordJobDuration(ctx, 15*time.Millisecond, "completed")
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	o := &Observability{tracer: tp.Tracer("test")}

	_, end := o.StartSpan(context.Background(), "generate-flashcards", 42)
	end(errors.New("llm unavailable"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "generate-flashcards", spans[0].Name())
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestNew_WithJaegerEndpoint(t *testing.T) {
	o, err := New(Options{ServiceName: "prism-workers-test", JaegerEndpoint: "http://127.0.0.1:14268/api/traces"})
	require.NoError(t, err)
	assert.NotNil(t, o.tracerProvider)
	o.Shutdown()
}
