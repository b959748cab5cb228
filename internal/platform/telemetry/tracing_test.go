package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

func TestOperationSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartOperation(context.Background(), "contribute", "alice")
	EndOperation(span, apperrors.New(apperrors.CodeOutOfWindow, "closed"))

	_, span = StartOperation(context.Background(), "save", "alice")
	EndOperation(span, errors.New("disk full"))

	ended := recorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(ended))
	}
	if ended[0].Name() != "fanvest.contribute" {
		t.Fatalf("span name = %q", ended[0].Name())
	}
	if ended[0].Status().Code == codes.Error {
		t.Fatal("domain rejection should not mark the span as failed")
	}
	var rejection string
	for _, attr := range ended[0].Attributes() {
		if attr.Key == "fanvest.rejection" {
			rejection = attr.Value.AsString()
		}
	}
	if rejection != string(apperrors.CodeOutOfWindow) {
		t.Fatalf("rejection = %q", rejection)
	}
	if ended[1].Status().Code != codes.Error {
		t.Fatalf("status = %v, want error", ended[1].Status().Code)
	}
}
