package fanvest

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("fanvest", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/fanvest.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.VotingPeriod != 7*24*time.Hour {
		t.Fatalf("expected seven day voting period, got %s", cfg.VotingPeriod)
	}
	if !cfg.AutoOpenVotes {
		t.Fatal("expected auto-open votes by default")
	}
	if cfg.HealthCheck {
		t.Fatal("expected healthcheck off by default")
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("FANVEST_INSTANCE_ID", "album-2026")
	t.Setenv("FANVEST_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("FANVEST_QUORUM_BPS", "2500")

	fs := flag.NewFlagSet("fanvest", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.InstanceID != "album-2026" {
		t.Fatalf("expected instance from env, got %q", cfg.InstanceID)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.QuorumBps != 2500 {
		t.Fatalf("expected quorum 2500, got %d", cfg.QuorumBps)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("fanvest", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9000", "-owner", "label", "-healthcheck"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("expected http addr override, got %q", cfg.HTTPAddr)
	}
	if cfg.Owner != "label" {
		t.Fatalf("expected owner override, got %q", cfg.Owner)
	}
	if !cfg.HealthCheck {
		t.Fatal("expected healthcheck flag")
	}
}

func TestServerConfigValidation(t *testing.T) {
	fs := flag.NewFlagSet("fanvest", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if _, err := cfg.serverConfig(); err == nil {
		t.Fatal("expected missing owner error")
	}

	cfg.Owner = "label"
	cfg.Entity = "band"
	cfg.BeneficiaryShareBps = 10_001
	if _, err := cfg.serverConfig(); err == nil {
		t.Fatal("expected share range error")
	}

	cfg.BeneficiaryShareBps = 4_000
	cfg.QuorumBps = 1<<32 + 1_000
	if _, err := cfg.serverConfig(); err == nil {
		t.Fatal("expected quorum range error before narrowing")
	}
	cfg.QuorumBps = 1_000
	cfg.ThresholdBps = 10_001
	if _, err := cfg.serverConfig(); err == nil {
		t.Fatal("expected threshold range error")
	}
	cfg.ThresholdBps = 5_100

	got, err := cfg.serverConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if got.BeneficiaryShareBps != 4_000 || got.Governance.ThresholdBps != 5_100 {
		t.Fatalf("unexpected server config %+v", got)
	}
}

func TestProbeAddr(t *testing.T) {
	if got := probeAddr(":8081"); got != "127.0.0.1:8081" {
		t.Fatalf("probeAddr(:8081) = %q", got)
	}
	if got := probeAddr("10.0.0.2:8081"); got != "10.0.0.2:8081" {
		t.Fatalf("probeAddr kept host = %q", got)
	}
}
