package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// hashEnvelope is the canonical field order used for event hashing. Storage
// assigned fields (seq, hashes, signature) are excluded.
type hashEnvelope struct {
	InstanceID  string          `json:"instance_id"`
	Timestamp   int64           `json:"timestamp_ms"`
	Type        string          `json:"type"`
	RequestID   string          `json:"request_id,omitempty"`
	ActorID     string          `json:"actor_id,omitempty"`
	EntityType  string          `json:"entity_type,omitempty"`
	EntityID    string          `json:"entity_id,omitempty"`
	PayloadJSON json.RawMessage `json:"payload,omitempty"`
}

func envelope(evt Event) hashEnvelope {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = nil
	}
	return hashEnvelope{
		InstanceID:  evt.InstanceID,
		Timestamp:   evt.Timestamp.UTC().UnixMilli(),
		Type:        string(evt.Type),
		RequestID:   evt.RequestID,
		ActorID:     evt.ActorID,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		PayloadJSON: payload,
	}
}

// EventHash computes the content hash for a single event.
func EventHash(evt Event) (string, error) {
	if strings.TrimSpace(evt.InstanceID) == "" {
		return "", fmt.Errorf("instance id is required")
	}
	if !evt.Type.IsValid() {
		return "", fmt.Errorf("event type is required")
	}
	data, err := json.Marshal(envelope(evt))
	if err != nil {
		return "", fmt.Errorf("marshal event envelope: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash computes the SHA-256 hash that links an event to its predecessor.
func ChainHash(evt Event, prevHash string) (string, error) {
	hash := evt.Hash
	if hash == "" {
		computed, err := EventHash(evt)
		if err != nil {
			return "", err
		}
		hash = computed
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", evt.Seq, prevHash, hash)))
	return hex.EncodeToString(sum[:]), nil
}
