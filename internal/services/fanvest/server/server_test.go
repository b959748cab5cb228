package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	platformgrpc "github.com/louisbranch/fanvest/internal/platform/grpc"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:            "127.0.0.1:0",
		HealthAddr:          "127.0.0.1:0",
		DBPath:              filepath.Join(t.TempDir(), "data", "fanvest.db"),
		InstanceID:          "demo",
		Owner:               "owner",
		Entity:              "studio",
		BeneficiaryShareBps: 5_000,
		AutoOpenVotes:       true,
		Governance:          governance.DefaultConfig(),
		RateLimit:           50,
		RateBurst:           10,
		MaxConns:            16,
		HMACKeys:            "test-secret",
		HMACKeyID:           "k1",
	}
}

func TestNewRequiresKeyring(t *testing.T) {
	cfg := testConfig(t)
	cfg.HMACKeys = ""
	if _, err := New(context.Background(), cfg, clockwork.NewFakeClock(), nil); err == nil {
		t.Fatal("expected keyring error")
	}
}

func TestNewRejectsInvalidGovernance(t *testing.T) {
	cfg := testConfig(t)
	cfg.Governance.VotingPeriod = 0
	if _, err := New(context.Background(), cfg, clockwork.NewFakeClock(), nil); err == nil {
		t.Fatal("expected governance config error")
	}
}

func TestNewCreatesJournalDir(t *testing.T) {
	cfg := testConfig(t)
	rt, err := New(context.Background(), cfg, clockwork.NewFakeClock(), nil)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.store.Close() })

	if got := rt.Protocol().InstanceID(); got != "demo" {
		t.Fatalf("instance id = %q, want demo", got)
	}
	events, err := rt.Protocol().Events(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected genesis events in the journal")
	}
}

func TestServeAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	rt, err := New(context.Background(), cfg, clockwork.NewFakeClock(), nil)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen http: %v", err)
	}
	healthLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen health: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- rt.serve(ctx, httpLis, healthLis)
	}()

	url := "http://" + httpLis.Addr().String() + "/healthz"
	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("get healthz: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		cancel()
		t.Fatalf("healthz status = %d, body %s", resp.StatusCode, body)
	}

	if err := platformgrpc.Probe(context.Background(), healthLis.Addr().String(), 2*time.Second); err != nil {
		cancel()
		t.Fatalf("health probe: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	_ = rt.store.Close()
}
