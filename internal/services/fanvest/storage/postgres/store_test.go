package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fanvest"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	ring, err := integrity.ParseKeyring("test-secret", "v1")
	require.NoError(t, err)
	store, err := Open(ctx, url, ring)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestJournalRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []event.Event{
		event.New("raise.configured", "raise", "inst-1", map[string]int{"target": 300}),
		event.New("raise.contributed", "contribution", "alice", nil),
	}
	events[0].Timestamp = at
	events[1].Timestamp = at.Add(time.Second)

	sealed, err := store.AppendEvents(ctx, "inst-1", events)
	require.NoError(t, err)
	require.Len(t, sealed, 2)

	listed, err := store.ListEvents(ctx, "inst-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, sealed[1].ChainHash, listed[1].ChainHash)
	assert.True(t, listed[0].Timestamp.Equal(at))
	assert.Nil(t, listed[1].PayloadJSON)

	report, err := storage.VerifyJournal(ctx, store, store.keyring, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.Checked)

	seq, hash, err := store.Head(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, sealed[1].ChainHash, hash)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.GetSnapshot(ctx, "inst-1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutSnapshot(ctx, storage.Snapshot{InstanceID: "inst-1", EventSeq: 2, StateJSON: []byte(`{}`), CreatedAt: at}))
	require.NoError(t, store.PutSnapshot(ctx, storage.Snapshot{InstanceID: "inst-1", EventSeq: 4, StateJSON: []byte(`{"v":2}`), CreatedAt: at}))

	snap, err := store.GetSnapshot(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), snap.EventSeq)
	assert.JSONEq(t, `{"v":2}`, string(snap.StateJSON))
}

func TestOpenValidatesInputs(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	assert.Error(t, err)
}
