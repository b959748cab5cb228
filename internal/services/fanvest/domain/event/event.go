package event

import (
	"encoding/json"
	"strings"
	"time"
)

// Type identifies the kind of event.
type Type string

// Event represents an immutable event in the instance journal.
type Event struct {
	// InstanceID is the fundraising instance this event belongs to.
	InstanceID string
	// Seq is the event sequence number within the instance (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Hash is the content hash (SHA-256). Assigned by storage on append.
	Hash string
	// PrevHash is the previous event's chain hash (empty for the first event).
	PrevHash string
	// ChainHash links this event to the previous chain hash (SHA-256).
	ChainHash string
	// SignatureKeyID identifies the HMAC key used to sign the chain hash.
	SignatureKeyID string
	// Signature is the HMAC signature of the chain hash.
	Signature string
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// RequestID correlates the events emitted by one operation.
	RequestID string
	// ActorID is the account that issued the operation.
	ActorID string
	// EntityType is the type of entity affected (raise, milestone, proposal...).
	EntityType string
	// EntityID is the ID of the entity affected.
	EntityID string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "raise", "vesting").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// New builds an event with a JSON payload. Payloads are plain structs, so a
// marshal failure leaves the payload empty rather than failing the transition.
func New(typ Type, entityType, entityID string, payload any) Event {
	evt := Event{
		Type:       typ,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			evt.PayloadJSON = data
		}
	}
	return evt
}

// Recorder collects events emitted during an operation.
type Recorder interface {
	Record(evt Event)
}

// Buffer is a Recorder that keeps events in memory until drained.
type Buffer struct {
	events []Event
}

// Record appends an event to the buffer.
func (b *Buffer) Record(evt Event) {
	if b == nil {
		return
	}
	b.events = append(b.events, evt)
}

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	if b == nil {
		return nil
	}
	out := b.events
	b.events = nil
	return out
}

// Len reports how many events are buffered.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.events)
}

// Discard is a Recorder that drops every event.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(Event) {}

// Emit records evt when r is non-nil.
func Emit(r Recorder, evt Event) {
	if r != nil {
		r.Record(evt)
	}
}
