package requestctx

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ctx := WithAccount(context.Background(), "alice")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithLocale(ctx, "en-US")

	if got := AccountFromContext(ctx); got != "alice" {
		t.Fatalf("AccountFromContext = %q, want alice", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("RequestIDFromContext = %q, want req-1", got)
	}
	if got := LocaleFromContext(ctx); got != "en-US" {
		t.Fatalf("LocaleFromContext = %q, want en-US", got)
	}
}

func TestEmptyAndNilContext(t *testing.T) {
	if got := AccountFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty account, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty request id for nil context, got %q", got)
	}
	ctx := WithAccount(nil, "bob")
	if got := AccountFromContext(ctx); got != "bob" {
		t.Fatalf("AccountFromContext = %q, want bob", got)
	}
}
