// Package vesting implements the milestone vesting escrow. The escrow holds
// the vesting bucket of a finalized raise and releases it milestone by
// milestone, only when the governance engine reports an approving vote.
//
// Each milestone moves Pending, SubmittedForReview, Voting, then Approved and
// Released or Rejected. A Pending or SubmittedForReview milestone whose
// deadline passed reads as Expired; ExpireMilestone persists that reading.
package vesting
