package integrity

import (
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
)

// ErrChainBroken reports a journal whose hashes or signatures do not verify.
var ErrChainBroken = errors.New("event chain broken")

// Seal assigns sequence numbers, hashes and signatures to events appended
// after the event at lastSeq whose chain hash is prevChainHash. Every event
// must belong to instanceID. The input slice is not modified.
func Seal(keyring *Keyring, instanceID string, lastSeq uint64, prevChainHash string, events []event.Event) ([]event.Event, error) {
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}
	sealed := make([]event.Event, len(events))
	for i, evt := range events {
		if evt.InstanceID == "" {
			evt.InstanceID = instanceID
		}
		if evt.InstanceID != instanceID {
			return nil, fmt.Errorf("event %d: instance %q does not match %q", i, evt.InstanceID, instanceID)
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = lastSeq + uint64(i) + 1

		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		evt.Hash = hash

		chainHash, err := event.ChainHash(evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		signature, keyID, err := keyring.SignChainHash(instanceID, chainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d sign: %w", i, err)
		}

		evt.PrevHash = prevChainHash
		evt.ChainHash = chainHash
		evt.Signature = signature
		evt.SignatureKeyID = keyID
		sealed[i] = evt
		prevChainHash = chainHash
	}
	return sealed, nil
}

// Verify checks one stored event against its predecessor's chain hash and
// sequence number.
func Verify(keyring *Keyring, evt event.Event, prevSeq uint64, prevChainHash string) error {
	if evt.Seq != prevSeq+1 {
		return fmt.Errorf("%w: seq %d follows %d", ErrChainBroken, evt.Seq, prevSeq)
	}
	if evt.PrevHash != prevChainHash {
		return fmt.Errorf("%w: seq %d prev hash mismatch", ErrChainBroken, evt.Seq)
	}
	hash, err := event.EventHash(evt)
	if err != nil {
		return fmt.Errorf("%w: seq %d: %v", ErrChainBroken, evt.Seq, err)
	}
	if hash != evt.Hash {
		return fmt.Errorf("%w: seq %d content hash mismatch", ErrChainBroken, evt.Seq)
	}
	chainHash, err := event.ChainHash(evt, prevChainHash)
	if err != nil {
		return fmt.Errorf("%w: seq %d: %v", ErrChainBroken, evt.Seq, err)
	}
	if chainHash != evt.ChainHash {
		return fmt.Errorf("%w: seq %d chain hash mismatch", ErrChainBroken, evt.Seq)
	}
	if err := keyring.VerifyChainHash(evt.InstanceID, evt.ChainHash, evt.Signature, evt.SignatureKeyID); err != nil {
		return fmt.Errorf("%w: seq %d: %v", ErrChainBroken, evt.Seq, err)
	}
	return nil
}
