// Package governance implements the voting engine: delegation-aware voting
// power, proposals with a refundable deposit, one ballot per voter fixed at
// cast time, and quorum and threshold resolution.
//
// Milestone votes are opened by the vesting escrow and, once executed, are
// the only path by which escrowed capital is released or rejected.
package governance
