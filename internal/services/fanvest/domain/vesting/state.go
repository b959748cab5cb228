package vesting

import (
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
)

// Status is a milestone lifecycle state.
type Status string

const (
	StatusPending            Status = "pending"
	StatusSubmittedForReview Status = "submitted_for_review"
	StatusVoting             Status = "voting"
	StatusApproved           Status = "approved"
	StatusReleased           Status = "released"
	StatusRejected           Status = "rejected"
	StatusExpired            Status = "expired"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusReleased, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// awaitingReview reports whether a milestone in s is still waiting on the
// beneficiary or a vote to be opened; only these statuses can expire.
func (s Status) awaitingReview() bool {
	return s == StatusPending || s == StatusSubmittedForReview
}

// MilestoneSpec is the owner input for a new milestone.
type MilestoneSpec struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	ReleaseAmount     uint64    `json:"release_amount"`
	TokenReward       uint64    `json:"token_reward"`
	Deadline          time.Time `json:"deadline"`
	OracleRequired    bool      `json:"oracle_required"`
	QuorumOverrideBps uint32    `json:"quorum_override_bps"`
}

// Milestone is a votable unit of progress gating a release.
type Milestone struct {
	ID                uint64         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Category          string         `json:"category"`
	ReleaseAmount     uint64         `json:"release_amount"`
	TokenReward       uint64         `json:"token_reward"`
	Deadline          time.Time      `json:"deadline"`
	Status            Status         `json:"status"`
	EvidenceRef       string         `json:"evidence_ref,omitempty"`
	ReviewNote        string         `json:"review_note,omitempty"`
	OracleRequired    bool           `json:"oracle_required"`
	OracleAttested    bool           `json:"oracle_attested"`
	AttestedBy        ledger.Account `json:"attested_by,omitempty"`
	QuorumOverrideBps uint32         `json:"quorum_override_bps,omitempty"`
	VoteID            uint64         `json:"vote_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	SubmittedAt       time.Time      `json:"submitted_at,omitempty"`
	ResolvedAt        time.Time      `json:"resolved_at,omitempty"`
}

// EffectiveStatus applies lazy expiry to the stored status.
func (m Milestone) EffectiveStatus(now time.Time) Status {
	if m.Status.awaitingReview() && now.After(m.Deadline) {
		return StatusExpired
	}
	return m.Status
}

// IsOverdue reports whether the deadline passed while the milestone was
// still Pending or SubmittedForReview.
func (m Milestone) IsOverdue(now time.Time) bool {
	return m.Status.awaitingReview() && now.After(m.Deadline)
}

// State is the persisted vesting account.
type State struct {
	Owner       ledger.Account `json:"owner"`
	Beneficiary ledger.Account `json:"beneficiary"`
	Governance  ledger.Account `json:"governance"`

	Initialized          bool      `json:"initialized"`
	InitializedAt        time.Time `json:"initialized_at,omitempty"`
	CapitalReserve       uint64    `json:"capital_reserve"`
	TokenRewardReserve   uint64    `json:"token_reward_reserve"`
	CapitalReleased      uint64    `json:"capital_released"`
	TokenRewardsReleased uint64    `json:"token_rewards_released"`

	Initializers map[ledger.Account]bool `json:"initializers"`
	Oracles      map[ledger.Account]bool `json:"oracles"`

	// BeneficiaryShareBps is the beneficiary's cut of each token reward;
	// the rest goes to FOR voters.
	BeneficiaryShareBps uint32 `json:"beneficiary_share_bps"`
	AutoOpenVotes       bool   `json:"auto_open_votes"`

	// Milestones are indexed by ID-1 and never removed.
	Milestones []Milestone `json:"milestones"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Initializers = cloneSet(s.Initializers)
	out.Oracles = cloneSet(s.Oracles)
	out.Milestones = append([]Milestone(nil), s.Milestones...)
	return out
}

func cloneSet(in map[ledger.Account]bool) map[ledger.Account]bool {
	out := make(map[ledger.Account]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CapitalRemaining is the reserve not yet released.
func (s State) CapitalRemaining() uint64 {
	return s.CapitalReserve - s.CapitalReleased
}

// committed sums release amounts and token rewards over every milestone.
// Rejected and expired milestones keep their commitment: their capital stays
// locked in the escrow.
func (s State) committed() (capital, tokens uint64) {
	for _, m := range s.Milestones {
		capital += m.ReleaseAmount
		tokens += m.TokenReward
	}
	return capital, tokens
}
