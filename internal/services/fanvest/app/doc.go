// Package app composes the fanvest ledgers, raise, vesting escrow and
// governance engine into one Protocol.
//
// Protocol runs one state-changing operation at a time. Each operation works
// on a checkpoint of every component; a rejection or a journal failure
// restores the checkpoint so no partial effect survives. Accepted operations
// append their events to the journal and refresh the state snapshot.
package app
