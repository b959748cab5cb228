package raise

import (
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
)

// Status is the raise lifecycle state.
type Status string

const (
	StatusUnconfigured Status = "unconfigured"
	StatusConfigured   Status = "configured"
	StatusActive       Status = "active"
	StatusFinalized    Status = "finalized"
	StatusFailed       Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusFailed
}

// Config is the immutable raise configuration.
type Config struct {
	// Target is the capital that finalizes the raise.
	Target uint64 `json:"target"`
	// Price is the capital paid for PriceScale token minor units.
	Price uint64 `json:"price"`
	// MinContribution and MaxContribution bound each contributor's
	// cumulative capital.
	MinContribution uint64    `json:"min_contribution"`
	MaxContribution uint64    `json:"max_contribution"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	KYCRequired     bool      `json:"kyc_required"`
}

// Validate checks the configuration against the current time.
func (c Config) Validate(now time.Time) error {
	switch {
	case c.Target == 0:
		return invalidConfig("target", "target must be positive")
	case c.Price == 0:
		return invalidConfig("price", "price must be positive")
	case c.MinContribution == 0:
		return invalidConfig("min_contribution", "minimum must be positive")
	case c.MinContribution > c.MaxContribution:
		return invalidConfig("max_contribution", "maximum must not be below minimum")
	case !c.Start.Before(c.End):
		return invalidConfig("end", "end must be after start")
	case !c.Start.After(now):
		return invalidConfig("start", "start must be in the future")
	}
	return nil
}

// Contribution is one contributor's record in the contribution ledger.
type Contribution struct {
	Contributor ledger.Account `json:"contributor"`
	Capital     uint64         `json:"capital"`
	Tokens      uint64         `json:"tokens"`
	Claimed     bool           `json:"claimed"`
	Refunded    bool           `json:"refunded"`
	FirstAt     time.Time      `json:"first_at"`
	LastAt      time.Time      `json:"last_at"`
}

// State is the persisted raise.
type State struct {
	Owner         ledger.Account                  `json:"owner"`
	Entity        ledger.Account                  `json:"entity"`
	Status        Status                          `json:"status"`
	Config        Config                          `json:"config"`
	TotalRaised   uint64                          `json:"total_raised"`
	TotalTokens   uint64                          `json:"total_tokens"`
	Contributions map[ledger.Account]Contribution `json:"contributions"`
	// Order lists contributors by first contribution.
	Order       []ledger.Account        `json:"order"`
	KYCApproved map[ledger.Account]bool `json:"kyc_approved"`
	Split       *Split                  `json:"split,omitempty"`
	FinalizedAt time.Time               `json:"finalized_at,omitempty"`
	// LiquidityOwed is the liquidity bucket the venue has not accepted yet.
	LiquidityOwed       uint64                  `json:"liquidity_owed"`
	LiquidityTokensOwed uint64                  `json:"liquidity_tokens_owed"`
	Receipts            []liquidity.PoolReceipt `json:"receipts,omitempty"`
}

// NewState returns an unconfigured raise.
func NewState(owner, entity ledger.Account) State {
	return State{
		Owner:         owner,
		Entity:        entity,
		Status:        StatusUnconfigured,
		Contributions: map[ledger.Account]Contribution{},
		KYCApproved:   map[ledger.Account]bool{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Contributions = make(map[ledger.Account]Contribution, len(s.Contributions))
	for k, v := range s.Contributions {
		out.Contributions[k] = v
	}
	out.KYCApproved = make(map[ledger.Account]bool, len(s.KYCApproved))
	for k, v := range s.KYCApproved {
		out.KYCApproved[k] = v
	}
	out.Order = append([]ledger.Account(nil), s.Order...)
	out.Receipts = append([]liquidity.PoolReceipt(nil), s.Receipts...)
	if s.Split != nil {
		split := *s.Split
		out.Split = &split
	}
	return out
}

// EffectiveStatus reports the status as of now, applying the lazy
// activation and expiry rules without mutating state.
func (s State) EffectiveStatus(now time.Time) Status {
	switch s.Status {
	case StatusConfigured, StatusActive:
		if now.After(s.Config.End) {
			if s.TotalRaised >= s.Config.Target {
				return StatusActive
			}
			return StatusFailed
		}
		if !now.Before(s.Config.Start) {
			return StatusActive
		}
		return s.Status
	default:
		return s.Status
	}
}
