package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
)

// PutSnapshot replaces the snapshot of the instance.
func (s *Store) PutSnapshot(ctx context.Context, snapshot storage.Snapshot) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(snapshot.InstanceID) == "" {
		return fmt.Errorf("instance id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO snapshots (instance_id, event_seq, state_json, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(instance_id) DO UPDATE SET
    event_seq = excluded.event_seq,
    state_json = excluded.state_json,
    created_at = excluded.created_at`,
		snapshot.InstanceID, int64(snapshot.EventSeq), snapshot.StateJSON, toMillis(snapshot.CreatedAt),
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
		snap      storage.Snapshot
		seq       int64
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT instance_id, event_seq, state_json, created_at FROM snapshots WHERE instance_id = ?",
		instanceID,
	).Scan(&snap.InstanceID, &seq, &snap.StateJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.EventSeq = uint64(seq)
	snap.CreatedAt = fromMillis(createdAt)
	return snap, nil
}
