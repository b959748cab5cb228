package app

import (
	"context"
	"fmt"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/raise"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
)

// RaiseView is the public state of the raise.
type RaiseView struct {
	Status        raise.Status   `json:"status"`
	Configured    bool           `json:"configured"`
	Config        raise.Config   `json:"config"`
	TotalRaised   uint64         `json:"total_raised"`
	TotalTokens   uint64         `json:"total_tokens"`
	Contributors  int            `json:"contributors"`
	Split         *raise.Split   `json:"split,omitempty"`
	LiquidityOwed uint64         `json:"liquidity_owed"`
	Entity        ledger.Account `json:"entity"`
	Owner         ledger.Account `json:"owner"`
}

// VestingView summarizes the vesting account.
type VestingView struct {
	Initialized          bool   `json:"initialized"`
	CapitalReserve       uint64 `json:"capital_reserve"`
	CapitalReleased      uint64 `json:"capital_released"`
	CapitalRemaining     uint64 `json:"capital_remaining"`
	TokenRewardReserve   uint64 `json:"token_reward_reserve"`
	TokenRewardsReleased uint64 `json:"token_rewards_released"`
	Milestones           int    `json:"milestones"`
}

// VotingPowerView is an account's balance and governance weight.
type VotingPowerView struct {
	Account      ledger.Account `json:"account"`
	Balance      uint64         `json:"balance"`
	Power        uint64         `json:"power"`
	DelegatedTo  ledger.Account `json:"delegated_to,omitempty"`
	VotingSupply uint64         `json:"voting_supply"`
}

// BalanceView is an account balance on one ledger.
type BalanceView struct {
	Ledger  string         `json:"ledger"`
	Account ledger.Account `json:"account"`
	Balance uint64         `json:"balance"`
	Supply  uint64         `json:"supply"`
}

// Raise returns the raise as of now.
func (p *Protocol) Raise() RaiseView {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.raise.State()
	return RaiseView{
		Status:        st.EffectiveStatus(p.clock.Now()),
		Configured:    st.Status != raise.StatusUnconfigured,
		Config:        st.Config,
		TotalRaised:   st.TotalRaised,
		TotalTokens:   st.TotalTokens,
		Contributors:  len(st.Order),
		Split:         st.Split,
		LiquidityOwed: st.LiquidityOwed,
		Entity:        st.Entity,
		Owner:         st.Owner,
	}
}

// Contribution returns the record of contributor.
func (p *Protocol) Contribution(contributor ledger.Account) (raise.Contribution, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raise.Contribution(contributor)
}

// Contributions lists every contribution in arrival order.
func (p *Protocol) Contributions() []raise.Contribution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raise.Contributions()
}

// Vesting summarizes the vesting account.
func (p *Protocol) Vesting() VestingView {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.vesting.State()
	return VestingView{
		Initialized:          st.Initialized,
		CapitalReserve:       st.CapitalReserve,
		CapitalReleased:      st.CapitalReleased,
		CapitalRemaining:     st.CapitalRemaining(),
		TokenRewardReserve:   st.TokenRewardReserve,
		TokenRewardsReleased: st.TokenRewardsReleased,
		Milestones:           len(st.Milestones),
	}
}

// Milestone returns one milestone with its effective status.
func (p *Protocol) Milestone(id uint64) (vesting.Milestone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vesting.Milestone(p.clock.Now(), id)
}

// Milestones lists every milestone with its effective status.
func (p *Protocol) Milestones() []vesting.Milestone {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vesting.Milestones(p.clock.Now())
}

// IsOverdue reports whether milestone id missed its deadline while awaiting review.
func (p *Protocol) IsOverdue(id uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vesting.IsOverdue(p.clock.Now(), id)
}

// Proposal returns one proposal.
func (p *Protocol) Proposal(id uint64) (governance.Proposal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.Proposal(id)
}

// Proposals lists every proposal.
func (p *Protocol) Proposals() []governance.Proposal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.Proposals()
}

// IsVotingOpen reports whether proposal id accepts ballots now.
func (p *Protocol) IsVotingOpen(id uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.IsVotingOpen(p.clock.Now(), id)
}

// DAOConfig returns the current governance parameters.
func (p *Protocol) DAOConfig() governance.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gov.Config()
}

// VotingPower returns the governance weight of account.
func (p *Protocol) VotingPower(account ledger.Account) VotingPowerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	delegate, _ := p.gov.Delegation(account)
	return VotingPowerView{
		Account:      account,
		Balance:      p.tokens.BalanceOf(account),
		Power:        p.gov.VotingPower(account),
		DelegatedTo:  delegate,
		VotingSupply: p.gov.VotingSupply(),
	}
}

// Balance returns account's balance on the named ledger.
func (p *Protocol) Balance(name string, account ledger.Account) (BalanceView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var l *ledger.Ledger
	switch name {
	case TokenLedger:
		l = p.tokens
	case CapitalLedger:
		l = p.capital
	default:
		return BalanceView{}, fmt.Errorf("unknown ledger %q: %w", name, storage.ErrNotFound)
	}
	return BalanceView{
		Ledger:  name,
		Account: account,
		Balance: l.BalanceOf(account),
		Supply:  l.TotalSupply(),
	}, nil
}

// Events pages through the journal after afterSeq.
func (p *Protocol) Events(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if p.store == nil {
		return nil, nil
	}
	return p.store.ListEvents(ctx, p.instanceID, afterSeq, storage.NormalizeLimit(limit))
}

// VerifyJournal checks the chain and signatures of every journaled event.
func (p *Protocol) VerifyJournal(ctx context.Context) (storage.VerifyReport, error) {
	if p.store == nil {
		return storage.VerifyReport{}, nil
	}
	return storage.VerifyJournal(ctx, p.store, p.keyring, p.instanceID)
}
