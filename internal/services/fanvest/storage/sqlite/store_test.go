package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	ring, err := integrity.ParseKeyring("test-secret", "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fanvest.db")
	store, err := Open(context.Background(), path, ring)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func testEvents(at time.Time, types ...string) []event.Event {
	out := make([]event.Event, 0, len(types))
	for i, typ := range types {
		evt := event.New(event.Type(typ), "raise", "inst-1", map[string]int{"i": i})
		evt.Timestamp = at.Add(time.Duration(i) * time.Second)
		evt.ActorID = "owner"
		evt.RequestID = "req-1"
		out = append(out, evt)
	}
	return out
}

func TestAppendAndListEvents(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.AppendEvents(ctx, "inst-1", testEvents(at, "raise.configured", "raise.contributed"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := store.AppendEvents(ctx, "inst-1", testEvents(at, "raise.finalized"))
	if err != nil {
		t.Fatalf("append second batch: %v", err)
	}
	if second[0].Seq != 3 || second[0].PrevHash != first[1].ChainHash {
		t.Fatalf("second batch not chained: seq=%d", second[0].Seq)
	}

	listed, err := store.ListEvents(ctx, "inst-1", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].Seq != 2 || listed[1].Seq != 3 {
		t.Fatalf("listed = %+v", listed)
	}
	if listed[1].Type != "raise.finalized" || listed[0].ActorID != "owner" {
		t.Fatalf("unexpected fields: %+v", listed[0])
	}
	if !listed[0].Timestamp.Equal(at.Add(time.Second)) {
		t.Fatalf("timestamp = %v", listed[0].Timestamp)
	}

	other, err := store.ListEvents(ctx, "inst-2", 0, 10)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no events for other instance, got %d", len(other))
	}

	seq, hash, err := store.Head(ctx, "inst-1")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if seq != 3 || hash != second[0].ChainHash {
		t.Fatalf("head = %d %q", seq, hash)
	}
}

func TestVerifyJournal(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := store.AppendEvents(ctx, "inst-1", testEvents(at, "a.one", "a.two", "a.three")); err != nil {
		t.Fatalf("append: %v", err)
	}

	report, err := storage.VerifyJournal(ctx, store, store.keyring, "inst-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Checked != 3 || report.LastSeq != 3 {
		t.Fatalf("report = %+v", report)
	}

	if _, err := store.sqlDB.ExecContext(ctx, "UPDATE events SET payload_json = ? WHERE seq = 2", []byte(`{"i":9}`)); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	_, err = storage.VerifyJournal(ctx, store, store.keyring, "inst-1")
	if !errors.Is(err, integrity.ErrChainBroken) {
		t.Fatalf("expected chain broken, got %v", err)
	}
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	store, path := openTestStore(t)

	if _, err := store.GetSnapshot(ctx, "inst-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutSnapshot(ctx, storage.Snapshot{InstanceID: "inst-1", EventSeq: 3, StateJSON: []byte(`{"v":1}`), CreatedAt: at}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutSnapshot(ctx, storage.Snapshot{InstanceID: "inst-1", EventSeq: 5, StateJSON: []byte(`{"v":2}`), CreatedAt: at}); err != nil {
		t.Fatalf("put replace: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ring, _ := integrity.ParseKeyring("test-secret", "v1")
	reopened, err := Open(ctx, path, ring)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	snap, err := reopened.GetSnapshot(ctx, "inst-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.EventSeq != 5 || string(snap.StateJSON) != `{"v":2}` || !snap.CreatedAt.Equal(at) {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestStoreGuards(t *testing.T) {
	var nilStore *Store
	if err := nilStore.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if _, err := nilStore.ListEvents(context.Background(), "inst-1", 0, 1); err == nil {
		t.Fatal("expected error for nil store")
	}

	store, _ := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.AppendEvents(ctx, "inst-1", testEvents(time.Now(), "a.b")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if _, err := store.AppendEvents(context.Background(), " ", nil); err == nil {
		t.Fatal("expected instance id error")
	}
	if _, err := Open(context.Background(), "", nil); err == nil {
		t.Fatal("expected path error")
	}
}
