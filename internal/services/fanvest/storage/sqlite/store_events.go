package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AppendEvents seals events against the current head and stores them in one
// transaction.
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

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lastSeq, prevHash, err := head(ctx, tx, instanceID)
	if err != nil {
		return nil, err
	}
	sealed, err := integrity.Seal(s.keyring, instanceID, lastSeq, prevHash, events)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO events (
    instance_id, seq, event_hash, prev_chain_hash, chain_hash, signature_key_id, signature,
    timestamp, event_type, request_id, actor_id, entity_type, entity_id, payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, evt := range sealed {
		if _, err := stmt.ExecContext(ctx,
			evt.InstanceID, int64(evt.Seq), evt.Hash, evt.PrevHash, evt.ChainHash, evt.SignatureKeyID, evt.Signature,
			toMillis(evt.Timestamp), string(evt.Type), evt.RequestID, evt.ActorID, evt.EntityType, evt.EntityID, evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("append event %d: %w", evt.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return sealed, nil
}

// ListEvents returns events with Seq > afterSeq in sequence order.
func (s *Store) ListEvents(ctx context.Context, instanceID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT instance_id, seq, event_hash, prev_chain_hash, chain_hash, signature_key_id, signature,
       timestamp, event_type, request_id, actor_id, entity_type, entity_id, payload_json
FROM events
WHERE instance_id = ? AND seq > ?
ORDER BY seq
LIMIT ?`, instanceID, int64(afterSeq), storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			evt     event.Event
			seq     int64
			ts      int64
			typ     string
			payload []byte
		)
		if err := rows.Scan(
			&evt.InstanceID, &seq, &evt.Hash, &evt.PrevHash, &evt.ChainHash, &evt.SignatureKeyID, &evt.Signature,
			&ts, &typ, &evt.RequestID, &evt.ActorID, &evt.EntityType, &evt.EntityID, &payload,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(ts)
		evt.Type = event.Type(typ)
		if len(payload) > 0 {
			evt.PayloadJSON = payload
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return out, nil
}

// Head returns the last sequence number and chain hash, or zero values for
// an empty journal.
func (s *Store) Head(ctx context.Context, instanceID string) (uint64, string, error) {
	if err := s.check(ctx); err != nil {
		return 0, "", err
	}
	return head(ctx, s.sqlDB, instanceID)
}

func head(ctx context.Context, q querier, instanceID string) (uint64, string, error) {
	var (
		seq       int64
		chainHash string
	)
	err := q.QueryRowContext(ctx,
		"SELECT seq, chain_hash FROM events WHERE instance_id = ? ORDER BY seq DESC LIMIT 1",
		instanceID,
	).Scan(&seq, &chainHash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("load journal head: %w", err)
	}
	return uint64(seq), chainHash, nil
}
