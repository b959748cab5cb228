package app

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/raise"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
)

// Component names an ownable part of the protocol.
type Component string

const (
	ComponentTokens     Component = "tokens"
	ComponentCapital    Component = "capital"
	ComponentRaise      Component = "raise"
	ComponentVesting    Component = "vesting"
	ComponentGovernance Component = "governance"
)

// ConfigureRaise sets the one-time raise configuration.
func (p *Protocol) ConfigureRaise(ctx context.Context, caller ledger.Account, cfg raise.Config) error {
	return p.run(ctx, "configure_raise", caller, func(_ context.Context, now time.Time) error {
		return p.raise.Configure(now, caller, cfg)
	})
}

// Contribute accepts capital from contributor.
func (p *Protocol) Contribute(ctx context.Context, contributor ledger.Account, capital uint64) error {
	return p.run(ctx, "contribute", contributor, func(ctx context.Context, now time.Time) error {
		return p.raise.Contribute(ctx, now, contributor, capital)
	})
}

// FinalizeRaise closes the raise after its window.
func (p *Protocol) FinalizeRaise(ctx context.Context, caller ledger.Account) error {
	return p.run(ctx, "finalize_raise", caller, func(ctx context.Context, now time.Time) error {
		return p.raise.FinalizeICO(ctx, now, caller)
	})
}

// ReconcileLiquidity retries the deferred liquidity seeding.
func (p *Protocol) ReconcileLiquidity(ctx context.Context, caller ledger.Account) (liquidity.PoolReceipt, error) {
	var receipt liquidity.PoolReceipt
	err := p.run(ctx, "reconcile_liquidity", caller, func(ctx context.Context, _ time.Time) error {
		var err error
		receipt, err = p.raise.ReconcileLiquidity(ctx, caller)
		return err
	})
	return receipt, err
}

// ClaimTokens mints the contributor's purchased tokens.
func (p *Protocol) ClaimTokens(ctx context.Context, contributor ledger.Account) (uint64, error) {
	var claimed uint64
	err := p.run(ctx, "claim_tokens", contributor, func(_ context.Context, now time.Time) error {
		var err error
		claimed, err = p.raise.ClaimTokens(now, contributor)
		return err
	})
	return claimed, err
}

// Refund returns the contributor's capital after a failed raise.
func (p *Protocol) Refund(ctx context.Context, contributor ledger.Account) (uint64, error) {
	var refunded uint64
	err := p.run(ctx, "refund", contributor, func(_ context.Context, now time.Time) error {
		var err error
		refunded, err = p.raise.Refund(now, contributor)
		return err
	})
	return refunded, err
}

// ApproveKYC marks account as KYC approved.
func (p *Protocol) ApproveKYC(ctx context.Context, caller, account ledger.Account) error {
	return p.run(ctx, "approve_kyc", caller, func(context.Context, time.Time) error {
		return p.raise.ApproveKYC(caller, account)
	})
}

// RevokeKYC removes the KYC approval of account.
func (p *Protocol) RevokeKYC(ctx context.Context, caller, account ledger.Account) error {
	return p.run(ctx, "revoke_kyc", caller, func(context.Context, time.Time) error {
		return p.raise.RevokeKYC(caller, account)
	})
}

// DepositCapital mints capital to account. Only capital minters may deposit.
func (p *Protocol) DepositCapital(ctx context.Context, caller, account ledger.Account, value uint64) error {
	return p.run(ctx, "deposit_capital", caller, func(context.Context, time.Time) error {
		return p.capital.Mint(caller, account, value, "deposit")
	})
}

// CreateMilestone adds a milestone to the vesting schedule.
func (p *Protocol) CreateMilestone(ctx context.Context, caller ledger.Account, spec vesting.MilestoneSpec) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "create_milestone", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.CreateMilestone(now, caller, spec)
		return err
	})
	return m, err
}

// SubmitMilestone moves a milestone into review with its evidence.
func (p *Protocol) SubmitMilestone(ctx context.Context, caller ledger.Account, id uint64, evidenceRef, note string) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "submit_milestone", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.SubmitMilestoneForReview(now, caller, id, evidenceRef, note)
		return err
	})
	return m, err
}

// AttestMilestone records an oracle attestation.
func (p *Protocol) AttestMilestone(ctx context.Context, caller ledger.Account, id uint64) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "attest_milestone", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.AttestMilestone(now, caller, id)
		return err
	})
	return m, err
}

// RequestMilestoneVote opens the governance vote of a submitted milestone.
func (p *Protocol) RequestMilestoneVote(ctx context.Context, caller ledger.Account, id uint64) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "request_milestone_vote", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.RequestVote(now, caller, id)
		return err
	})
	return m, err
}

// ExtendDeadline moves a milestone deadline forward.
func (p *Protocol) ExtendDeadline(ctx context.Context, caller ledger.Account, id uint64, deadline time.Time) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "extend_deadline", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.ExtendDeadline(now, caller, id, deadline)
		return err
	})
	return m, err
}

// ExpireMilestone marks an overdue milestone as expired. Anyone may call it.
func (p *Protocol) ExpireMilestone(ctx context.Context, caller ledger.Account, id uint64) (vesting.Milestone, error) {
	var m vesting.Milestone
	err := p.run(ctx, "expire_milestone", caller, func(_ context.Context, now time.Time) error {
		var err error
		m, err = p.vesting.ExpireMilestone(now, id)
		return err
	})
	return m, err
}

// AddOracle authorizes account to attest milestones.
func (p *Protocol) AddOracle(ctx context.Context, caller, account ledger.Account) error {
	return p.run(ctx, "add_oracle", caller, func(context.Context, time.Time) error {
		return p.vesting.AddOracle(caller, account)
	})
}

// DelegateVotingPower delegates the caller's power to to. An empty to clears
// the delegation.
func (p *Protocol) DelegateVotingPower(ctx context.Context, caller, to ledger.Account) error {
	return p.run(ctx, "delegate", caller, func(context.Context, time.Time) error {
		return p.gov.DelegateVotingPower(caller, to)
	})
}

// CreateProposal opens a governance proposal.
func (p *Protocol) CreateProposal(ctx context.Context, caller ledger.Account, in governance.ProposalInput) (governance.Proposal, error) {
	var prop governance.Proposal
	err := p.run(ctx, "create_proposal", caller, func(_ context.Context, now time.Time) error {
		var err error
		prop, err = p.gov.CreateProposal(now, caller, in)
		return err
	})
	return prop, err
}

// CastVote records the caller's ballot.
func (p *Protocol) CastVote(ctx context.Context, caller ledger.Account, id uint64, support bool) (governance.Ballot, error) {
	var ballot governance.Ballot
	err := p.run(ctx, "cast_vote", caller, func(_ context.Context, now time.Time) error {
		var err error
		ballot, err = p.gov.CastVote(now, caller, id, support)
		return err
	})
	return ballot, err
}

// ExecuteVote resolves a closed proposal.
func (p *Protocol) ExecuteVote(ctx context.Context, caller ledger.Account, id uint64) (governance.Proposal, error) {
	var prop governance.Proposal
	err := p.run(ctx, "execute_vote", caller, func(_ context.Context, now time.Time) error {
		var err error
		prop, err = p.gov.ExecuteVote(now, caller, id)
		return err
	})
	return prop, err
}

// UpdateDAOConfig replaces the governance parameters. Owner only.
func (p *Protocol) UpdateDAOConfig(ctx context.Context, caller ledger.Account, cfg governance.Config) error {
	return p.run(ctx, "update_dao_config", caller, func(context.Context, time.Time) error {
		return p.gov.UpdateDAOConfig(caller, cfg)
	})
}

// TransferOwnership hands the owner role of component to next.
func (p *Protocol) TransferOwnership(ctx context.Context, caller ledger.Account, component Component, next ledger.Account) error {
	return p.run(ctx, "transfer_ownership", caller, func(context.Context, time.Time) error {
		switch component {
		case ComponentTokens:
			return p.tokens.TransferOwnership(caller, next)
		case ComponentCapital:
			return p.capital.TransferOwnership(caller, next)
		case ComponentRaise:
			return p.raise.TransferOwnership(caller, next)
		case ComponentVesting:
			return p.vesting.TransferOwnership(caller, next)
		case ComponentGovernance:
			return p.gov.TransferOwnership(caller, next)
		default:
			return apperrors.WithMetadata(apperrors.CodeInvalidInput, "unknown component", map[string]string{
				"Field": "component",
			})
		}
	})
}
