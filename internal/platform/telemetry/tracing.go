package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

const instrumentationName = "github.com/louisbranch/fanvest"

// Tracer returns the process tracer. It is a no-op until otel.Setup
// registers a provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartOperation opens a span for one protocol operation.
func StartOperation(ctx context.Context, operation, actor string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "fanvest."+operation,
		trace.WithAttributes(
			attribute.String("fanvest.operation", operation),
			attribute.String("fanvest.actor", actor),
		),
	)
}

// EndOperation records the outcome on span and ends it. Domain rejections
// carry their code; other failures are marked as span errors.
func EndOperation(span trace.Span, err error) {
	if err != nil {
		code := apperrors.CodeOf(err)
		span.SetAttributes(attribute.String("fanvest.rejection", string(code)))
		if code == apperrors.CodeUnknown || code.Category() == apperrors.CategoryInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
