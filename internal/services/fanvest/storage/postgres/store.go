// Package postgres stores the fanvest journal and snapshots in PostgreSQL
// through a pgx connection pool. Migrations run with goose.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var _ storage.Store = (*Store)(nil)

// Store is the PostgreSQL journal and snapshot store.
type Store struct {
	pool    *pgxpool.Pool
	keyring *integrity.Keyring
}

// Open connects to url, runs migrations and returns the store.
func Open(ctx context.Context, url string, keyring *integrity.Keyring) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("postgres url is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, keyring: keyring}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the pool. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// AppendEvents seals events against the current head and stores them in one
// transaction. The head row is locked so concurrent writers serialize.
func (s *Store) AppendEvents(ctx context.Context, instanceID string, events []event.Event) ([]event.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(instanceID) == "" {
		return nil, fmt.Errorf("instance id is required")
	}
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", instanceID); err != nil {
		return nil, fmt.Errorf("lock journal: %w", err)
	}
	lastSeq, prevHash, err := head(ctx, tx, instanceID)
	if err != nil {
		return nil, err
	}
	sealed, err := integrity.Seal(s.keyring, instanceID, lastSeq, prevHash, events)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, evt := range sealed {
		batch.Queue(`
INSERT INTO fanvest_events (
    instance_id, seq, event_hash, prev_chain_hash, chain_hash, signature_key_id, signature,
    occurred_at, event_type, request_id, actor_id, entity_type, entity_id, payload_json
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			evt.InstanceID, int64(evt.Seq), evt.Hash, evt.PrevHash, evt.ChainHash, evt.SignatureKeyID, evt.Signature,
			evt.Timestamp, string(evt.Type), evt.RequestID, evt.ActorID, evt.EntityType, evt.EntityID, evt.PayloadJSON,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sealed, nil
}

// ListEvents returns events with Seq > afterSeq in sequence order.
func (s *Store) ListEvents(ctx context.Context, instanceID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
SELECT instance_id, seq, event_hash, prev_chain_hash, chain_hash, signature_key_id, signature,
       occurred_at, event_type, request_id, actor_id, entity_type, entity_id, payload_json
FROM fanvest_events
WHERE instance_id = $1 AND seq > $2
ORDER BY seq
LIMIT $3`, instanceID, int64(afterSeq), storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (event.Event, error) {
		var (
			evt event.Event
			seq int64
			typ string
		)
		if err := row.Scan(
			&evt.InstanceID, &seq, &evt.Hash, &evt.PrevHash, &evt.ChainHash, &evt.SignatureKeyID, &evt.Signature,
			&evt.Timestamp, &typ, &evt.RequestID, &evt.ActorID, &evt.EntityType, &evt.EntityID, &evt.PayloadJSON,
		); err != nil {
			return event.Event{}, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(typ)
		evt.Timestamp = evt.Timestamp.UTC()
		if len(evt.PayloadJSON) == 0 {
			evt.PayloadJSON = nil
		}
		return evt, nil
	})
}

// Head returns the last sequence number and chain hash.
func (s *Store) Head(ctx context.Context, instanceID string) (uint64, string, error) {
	if err := s.check(ctx); err != nil {
		return 0, "", err
	}
	return head(ctx, s.pool, instanceID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func head(ctx context.Context, q rowQuerier, instanceID string) (uint64, string, error) {
	var (
		seq       int64
		chainHash string
	)
	err := q.QueryRow(ctx,
		"SELECT seq, chain_hash FROM fanvest_events WHERE instance_id = $1 ORDER BY seq DESC LIMIT 1",
		instanceID,
	).Scan(&seq, &chainHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("load journal head: %w", err)
	}
	return uint64(seq), chainHash, nil
}

// PutSnapshot replaces the snapshot of the instance.
func (s *Store) PutSnapshot(ctx context.Context, snapshot storage.Snapshot) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(snapshot.InstanceID) == "" {
		return fmt.Errorf("instance id is required")
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO fanvest_snapshots (instance_id, event_seq, state_json, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (instance_id) DO UPDATE SET
    event_seq = EXCLUDED.event_seq,
    state_json = EXCLUDED.state_json,
    created_at = EXCLUDED.created_at`,
		snapshot.InstanceID, int64(snapshot.EventSeq), snapshot.StateJSON, snapshot.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the instance snapshot or storage.ErrNotFound.
func (s *Store) GetSnapshot(ctx context.Context, instanceID string) (storage.Snapshot, error) {
	if err := s.check(ctx); err != nil {
		return storage.Snapshot{}, err
	}
	var (
		snap storage.Snapshot
		seq  int64
	)
	err := s.pool.QueryRow(ctx,
		"SELECT instance_id, event_seq, state_json, created_at FROM fanvest_snapshots WHERE instance_id = $1",
		instanceID,
	).Scan(&snap.InstanceID, &seq, &snap.StateJSON, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.EventSeq = uint64(seq)
	snap.CreatedAt = snap.CreatedAt.UTC()
	return snap, nil
}
