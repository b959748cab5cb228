// Package raise implements the contribution ledger and the fundraise
// controller: a timed raise with per-contributor bounds that finalizes into a
// fixed capital split, or fails and refunds every contributor.
//
// The lifecycle is Unconfigured, Configured, Active, then exactly one of
// Finalized or Failed. Time-driven transitions are computed from the caller's
// clock: Configured reads as Active once the window opens, and a window that
// closes below target reads as Failed until a call materializes it.
package raise
