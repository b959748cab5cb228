package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// DefaultPageSize bounds ListEvents when the caller passes no limit.
const DefaultPageSize = 100

// MaxPageSize is the largest page ListEvents returns.
const MaxPageSize = 1000

// Snapshot is the serialized protocol state after the event at EventSeq.
type Snapshot struct {
	InstanceID string
	EventSeq   uint64
	StateJSON  []byte
	CreatedAt  time.Time
}

// EventStore appends to and reads the per-instance event journal.
type EventStore interface {
	// AppendEvents seals and stores events atomically after the current head.
	AppendEvents(ctx context.Context, instanceID string, events []event.Event) ([]event.Event, error)
	// ListEvents returns up to limit events with Seq > afterSeq in order.
	ListEvents(ctx context.Context, instanceID string, afterSeq uint64, limit int) ([]event.Event, error)
	// Head returns the last stored sequence number and chain hash.
	Head(ctx context.Context, instanceID string) (uint64, string, error)
}

// SnapshotStore keeps the latest state snapshot per instance.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, snapshot Snapshot) error
	GetSnapshot(ctx context.Context, instanceID string) (Snapshot, error)
}

// Store is a complete backend.
type Store interface {
	EventStore
	SnapshotStore
	Close() error
}

// VerifyReport summarizes a journal verification.
type VerifyReport struct {
	Checked       uint64
	LastSeq       uint64
	LastChainHash string
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}

// VerifyJournal walks the whole journal of instanceID and checks every hash
// link and signature.
func VerifyJournal(ctx context.Context, store EventStore, keyring *integrity.Keyring, instanceID string) (VerifyReport, error) {
	var report VerifyReport
	for {
		page, err := store.ListEvents(ctx, instanceID, report.LastSeq, MaxPageSize)
		if err != nil {
			return report, fmt.Errorf("list events: %w", err)
		}
		for _, evt := range page {
			if err := integrity.Verify(keyring, evt, report.LastSeq, report.LastChainHash); err != nil {
				return report, err
			}
			report.Checked++
			report.LastSeq = evt.Seq
			report.LastChainHash = evt.ChainHash
		}
		if len(page) < MaxPageSize {
			return report, nil
		}
	}
}
