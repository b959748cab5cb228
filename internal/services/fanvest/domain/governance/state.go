package governance

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
)

// Kind classifies a proposal.
type Kind string

const (
	KindMilestoneRelease Kind = "milestone_release"
	KindParameterChange  Kind = "parameter_change"
	KindGeneric          Kind = "generic"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMilestoneRelease, KindParameterChange, KindGeneric:
		return true
	default:
		return false
	}
}

// Outcome is the resolution of an executed vote.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Ballot is one voter's fixed vote.
type Ballot struct {
	Voter   ledger.Account `json:"voter"`
	Support bool           `json:"support"`
	Power   uint64         `json:"power"`
	CastAt  time.Time      `json:"cast_at"`
}

// Proposal is a vote and the parameters it captured at open.
type Proposal struct {
	ID          uint64          `json:"id"`
	Kind        Kind            `json:"kind"`
	Subject     string          `json:"subject,omitempty"`
	MilestoneID uint64          `json:"milestone_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Proposer    ledger.Account  `json:"proposer"`
	Deposit     uint64          `json:"deposit"`

	OpenedAt       time.Time `json:"opened_at"`
	ClosesAt       time.Time `json:"closes_at"`
	SupplySnapshot uint64    `json:"supply_snapshot"`
	QuorumBps      uint32    `json:"quorum_bps"`
	ThresholdBps   uint32    `json:"threshold_bps"`
	VotingReward   uint64    `json:"voting_reward"`

	ForWeight     uint64                    `json:"for_weight"`
	AgainstWeight uint64                    `json:"against_weight"`
	Ballots       map[ledger.Account]Ballot `json:"ballots"`

	// Counted maps each account whose balance is already in a ballot to the
	// voter that cast it.
	Counted map[ledger.Account]ledger.Account `json:"counted,omitempty"`

	Executed   bool      `json:"executed"`
	ExecutedAt time.Time `json:"executed_at,omitempty"`
	QuorumMet  bool      `json:"quorum_met"`
	Outcome    Outcome   `json:"outcome"`
}

// IsVotingOpen reports whether ballots are accepted at now.
func (p Proposal) IsVotingOpen(now time.Time) bool {
	return !p.Executed && !now.Before(p.OpenedAt) && !now.After(p.ClosesAt)
}

func (p Proposal) clone() Proposal {
	out := p
	out.Payload = append(json.RawMessage(nil), p.Payload...)
	out.Ballots = make(map[ledger.Account]Ballot, len(p.Ballots))
	for k, v := range p.Ballots {
		out.Ballots[k] = v
	}
	if p.Counted != nil {
		out.Counted = make(map[ledger.Account]ledger.Account, len(p.Counted))
		for k, v := range p.Counted {
			out.Counted[k] = v
		}
	}
	return out
}

// State is the persisted governance engine.
type State struct {
	Owner  ledger.Account `json:"owner"`
	Escrow ledger.Account `json:"escrow"`
	Config Config         `json:"config"`
	// Delegations maps delegator to delegate. Edges are never followed
	// transitively.
	Delegations map[ledger.Account]ledger.Account `json:"delegations"`
	// Excluded accounts hold protocol balances and carry no voting power.
	Excluded  map[ledger.Account]bool `json:"excluded"`
	Proposals []Proposal              `json:"proposals"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Delegations = make(map[ledger.Account]ledger.Account, len(s.Delegations))
	for k, v := range s.Delegations {
		out.Delegations[k] = v
	}
	out.Excluded = make(map[ledger.Account]bool, len(s.Excluded))
	for k, v := range s.Excluded {
		out.Excluded[k] = v
	}
	out.Proposals = make([]Proposal, len(s.Proposals))
	for i, p := range s.Proposals {
		out.Proposals[i] = p.clone()
	}
	return out
}
