package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func startHealthServer(t *testing.T, serving bool) (string, *HealthServer) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := NewHealthServer()
	server.SetServing(serving)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, lis, time.Second)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("health server did not stop")
		}
	})
	return lis.Addr().String(), server
}

func TestProbeServing(t *testing.T) {
	addr, _ := startHealthServer(t, true)

	if err := Probe(context.Background(), addr, 2*time.Second); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestProbeWaitsForTransition(t *testing.T) {
	addr, server := startHealthServer(t, false)

	go func() {
		time.Sleep(150 * time.Millisecond)
		server.SetServing(true)
	}()

	if err := Probe(context.Background(), addr, 2*time.Second); err != nil {
		t.Fatalf("probe after transition: %v", err)
	}
}

func TestProbeNotServingTimesOut(t *testing.T) {
	addr, _ := startHealthServer(t, false)

	err := Probe(context.Background(), addr, 250*time.Millisecond)
	if err == nil {
		t.Fatal("expected probe error")
	}
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageHealth)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitForHealthRejectsNilConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected nil connection error")
	}
}
