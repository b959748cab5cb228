package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int    `env:"FANVEST_TEST_PORT" envDefault:"123"`
	Name string `env:"FANVEST_TEST_NAME"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("FANVEST_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvSkipsMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load missing: %v", err)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	data := "FANVEST_TEST_PORT=9000\nFANVEST_TEST_NAME=from-file\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FANVEST_TEST_PORT", "7000")
	// Registers cleanup for the variable the file sets.
	t.Setenv("FANVEST_TEST_NAME", "")
	os.Unsetenv("FANVEST_TEST_NAME")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 7000 {
		t.Fatalf("port = %d, want 7000", cfg.Port)
	}
	if cfg.Name != "from-file" {
		t.Fatalf("name = %q, want from-file", cfg.Name)
	}
}
