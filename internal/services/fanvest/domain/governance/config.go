package governance

import (
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"
)

// Config holds the DAO parameters captured by each proposal at open.
type Config struct {
	VotingPeriod    time.Duration `json:"voting_period"`
	QuorumBps       uint32        `json:"quorum_bps"`
	ThresholdBps    uint32        `json:"threshold_bps"`
	ProposalDeposit uint64        `json:"proposal_deposit"`
	VotingReward    uint64        `json:"voting_reward"`
	MinVotingPower  uint64        `json:"min_voting_power"`
}

// DefaultConfig returns a seven day vote at 10% quorum and 51% threshold.
func DefaultConfig() Config {
	return Config{
		VotingPeriod:    7 * 24 * time.Hour,
		QuorumBps:       1_000,
		ThresholdBps:    5_100,
		ProposalDeposit: 100,
		VotingReward:    1,
		MinVotingPower:  1,
	}
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	switch {
	case c.VotingPeriod <= 0:
		return invalidConfig("voting_period", "voting period must be positive")
	case c.QuorumBps > amount.BasisPoints:
		return invalidConfig("quorum_bps", "quorum above 10000 bps")
	case c.ThresholdBps == 0 || c.ThresholdBps > amount.BasisPoints:
		return invalidConfig("threshold_bps", "threshold must be within 1..10000 bps")
	}
	return nil
}
