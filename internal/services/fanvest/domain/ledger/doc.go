// Package ledger implements the fund ledger consumed by the raise, vesting and
// governance components: a fungible balance book whose mint, burn and operator
// transfer rights are explicit allow-lists mutated only by the ledger owner.
//
// The process runs two ledgers: the fan token and the capital contributors pay
// in. Components never hold the ledger itself; they hold a Capability bound to
// their own account, and every privileged call is checked against the
// allow-lists at call time.
package ledger
