// Package sqlite stores the fanvest journal and snapshots in SQLite through
// the pure Go modernc.org/sqlite driver.
package sqlite
