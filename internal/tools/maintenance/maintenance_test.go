package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/sqlite"
)

func newJournal(t *testing.T) (*sqlite.Store, *integrity.Keyring) {
	t.Helper()
	keyring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("secret")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "fanvest.db"), keyring)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	_, err = store.AppendEvents(context.Background(), "demo", []event.Event{
		{Timestamp: at, Type: "ledger.minted", EntityType: "ledger", EntityID: "token", PayloadJSON: []byte(`{"amount":1}`)},
		{Timestamp: at, Type: "raise.configured", EntityType: "raise", EntityID: "demo", PayloadJSON: []byte(`{}`)},
	})
	if err != nil {
		t.Fatalf("append events: %v", err)
	}
	return store, keyring
}

func putSnapshot(t *testing.T, store *sqlite.Store, seq uint64) {
	t.Helper()
	err := store.PutSnapshot(context.Background(), storage.Snapshot{
		InstanceID: "demo",
		EventSeq:   seq,
		StateJSON:  []byte(`{}`),
		CreatedAt:  time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("put snapshot: %v", err)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("maintenance", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-instances", "a, b"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != filepath.Join("data", "fanvest.db") {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.Timeout != 10*time.Minute {
		t.Fatalf("unexpected timeout %s", cfg.Timeout)
	}
	ids, err := resolveInstanceIDs(cfg.InstanceID, cfg.InstanceIDs)
	if err != nil {
		t.Fatalf("resolve ids: %v", err)
	}
	if strings.Join(ids, "|") != "a|b" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestResolveInstanceIDsRequiresOne(t *testing.T) {
	if _, err := resolveInstanceIDs(" ", ","); err == nil {
		t.Fatal("expected missing instance error")
	}
}

func TestRunWithStoreOK(t *testing.T) {
	store, keyring := newJournal(t)
	putSnapshot(t, store, 2)

	out := &bytes.Buffer{}
	if err := runWithStore(context.Background(), store, keyring, []string{"demo"}, false, out); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "[ok] instance demo: 2 events verified through seq 2") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunWithStoreSnapshotLag(t *testing.T) {
	store, keyring := newJournal(t)
	putSnapshot(t, store, 1)

	out := &bytes.Buffer{}
	err := runWithStore(context.Background(), store, keyring, []string{"demo"}, false, out)
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("expected check failure, got %v", err)
	}
	if !strings.Contains(out.String(), "seq 1 behind journal head 2") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunWithStoreWrongKey(t *testing.T) {
	store, _ := newJournal(t)
	other, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("other")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}

	out := &bytes.Buffer{}
	err = runWithStore(context.Background(), store, other, []string{"demo"}, true, out)
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("expected check failure, got %v", err)
	}
	var report Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Error == "" || report.OK() {
		t.Fatalf("expected signature error in report, got %+v", report)
	}
}

func TestRunWithStoreEmptyInstance(t *testing.T) {
	store, keyring := newJournal(t)

	out := &bytes.Buffer{}
	if err := runWithStore(context.Background(), store, keyring, []string{"other"}, false, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "0 events verified") || !strings.Contains(out.String(), "snapshot: none") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunRequiresKeyring(t *testing.T) {
	cfg := Config{InstanceID: "demo", DBPath: filepath.Join(t.TempDir(), "x.db")}
	if err := Run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected keyring error")
	}
}
