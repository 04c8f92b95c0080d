package observe

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func traceSetup(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return exp
}

func TestStartSpan_RecordsSpan(t *testing.T) {
	exp := traceSetup(t)

	ctx, span := StartSpan(context.Background(), "transcribe-utterance")
	if CorrelationID(ctx) == "" {
		t.Error("no trace ID inside started span")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "transcribe-utterance" {
		t.Errorf("span name = %q", spans[0].Name)
	}
}

func TestCorrelationID_NoSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without span = %q, want empty", got)
	}
}

func TestLogger_WithSpanContext(t *testing.T) {
	traceSetup(t)

	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	ctx, span := StartSpan(context.Background(), "logger-test")
	defer span.End()

	Logger(ctx).Info("hello")

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("trace_id=")) {
		t.Errorf("log output missing trace_id: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("span_id=")) {
		t.Errorf("log output missing span_id: %s", out)
	}
}

func TestLogger_WithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	Logger(context.Background()).Info("plain")

	if bytes.Contains(buf.Bytes(), []byte("trace_id=")) {
		t.Errorf("log output has trace_id without an active span: %s", buf.String())
	}
}
