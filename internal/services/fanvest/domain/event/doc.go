// Package event defines the journal envelope every state transition emits.
//
// Components record events into a Recorder while an operation runs. The
// protocol layer flushes the recorded events to the journal only when the
// operation succeeds, so the journal never carries effects that were rolled
// back.
package event
