// Package storage defines the persistence contracts for the fanvest event
// journal and state snapshots. The sqlite and postgres subpackages implement
// them.
package storage
