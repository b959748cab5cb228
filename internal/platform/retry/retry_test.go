package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return &StatusError{Code: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return &StatusError{Code: http.StatusBadRequest}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return io.ErrUnexpectedEOF
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Do() error = %v, want wrapped unexpected EOF", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, BaseBackoff: time.Hour, MaxBackoff: time.Hour}
	attempts := 0
	err := Do(ctx, cfg, func(context.Context) error {
		attempts++
		cancel()
		return syscall.ECONNRESET
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context canceled", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "reset", err: fmt.Errorf("dial: %w", syscall.ECONNRESET), want: true},
		{name: "too many requests", err: &StatusError{Code: http.StatusTooManyRequests}, want: true},
		{name: "bad request", err: &StatusError{Code: http.StatusBadRequest}, want: false},
		{name: "permanent", err: Permanent(io.EOF), want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	for attempt := 1; attempt < 70; attempt++ {
		if got := backoff(time.Millisecond, 10*time.Millisecond, attempt); got > 10*time.Millisecond {
			t.Fatalf("backoff(attempt=%d) = %v, want <= 10ms", attempt, got)
		}
	}
}
