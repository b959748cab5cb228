package raise

import (
	"context"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
)

// Accounts the raise moves capital through.
const (
	Account          ledger.Account = "raise"
	LiquidityAccount ledger.Account = "liquidity"
)

const (
	eventTypeConfigured           event.Type = "raise.configured"
	eventTypeActivated            event.Type = "raise.activated"
	eventTypeContributed          event.Type = "raise.contributed"
	eventTypeFinalized            event.Type = "raise.finalized"
	eventTypeFailed               event.Type = "raise.failed"
	eventTypeClaimed              event.Type = "raise.tokens_claimed"
	eventTypeRefunded             event.Type = "raise.refunded"
	eventTypeKYCApproved          event.Type = "raise.kyc_approved"
	eventTypeKYCRevoked           event.Type = "raise.kyc_revoked"
	eventTypeLiquiditySeeded      event.Type = "raise.liquidity_seeded"
	eventTypeOwnershipTransferred event.Type = "raise.ownership_transferred"
)

// EventTypeLiquidityDeferred marks a finalization whose liquidity bucket the
// venue did not accept.
const EventTypeLiquidityDeferred event.Type = "raise.liquidity_deferred"

const entityType = "raise"

// TokenMinter mints fan tokens as the raise account.
type TokenMinter interface {
	Mint(to ledger.Account, value uint64, reason string) error
}

// CapitalMover moves capital as the raise account.
type CapitalMover interface {
	Transfer(from, to ledger.Account, value uint64, reason string) error
}

// VestingInitializer receives the vesting bucket on finalization.
type VestingInitializer interface {
	InitializeVesting(now time.Time, caller ledger.Account, capital, tokenReward uint64) error
	IsInitialized() bool
}

// Deps are the collaborators of the fundraise controller.
type Deps struct {
	Tokens   TokenMinter
	Capital  CapitalMover
	Vesting  VestingInitializer
	Venue    liquidity.Venue
	Recorder event.Recorder
}

// Controller runs one raise.
type Controller struct {
	state State
	deps  Deps
}

// New returns a controller for an unconfigured raise.
func New(owner, entity ledger.Account, deps Deps) *Controller {
	return &Controller{state: NewState(owner, entity), deps: deps}
}

// SetRecorder routes raise events to r.
func (c *Controller) SetRecorder(r event.Recorder) {
	c.deps.Recorder = r
}

// State returns a copy of the raise state.
func (c *Controller) State() State {
	return c.state.Clone()
}

// Restore replaces the raise state with a copy of s.
func (c *Controller) Restore(s State) {
	c.state = s.Clone()
	if c.state.Contributions == nil {
		c.state.Contributions = map[ledger.Account]Contribution{}
	}
	if c.state.KYCApproved == nil {
		c.state.KYCApproved = map[ledger.Account]bool{}
	}
}

// EffectiveStatus reports the raise status as of now.
func (c *Controller) EffectiveStatus(now time.Time) Status {
	return c.state.EffectiveStatus(now)
}

// Contribution returns the record for account.
func (c *Controller) Contribution(account ledger.Account) (Contribution, bool) {
	rec, ok := c.state.Contributions[account]
	return rec, ok
}

// Contributions returns every record in first-contribution order.
func (c *Controller) Contributions() []Contribution {
	out := make([]Contribution, 0, len(c.state.Order))
	for _, account := range c.state.Order {
		out = append(out, c.state.Contributions[account])
	}
	return out
}

// Configure sets the raise configuration once.
func (c *Controller) Configure(now time.Time, caller ledger.Account, cfg Config) error {
	if caller != c.state.Owner {
		return ErrUnauthorized
	}
	if c.state.Status != StatusUnconfigured {
		return ErrAlreadyConfigured
	}
	if err := cfg.Validate(now); err != nil {
		return err
	}
	if c.deps.Vesting != nil && c.deps.Vesting.IsInitialized() {
		return ErrVestingFunded
	}
	cfg.Start = cfg.Start.UTC()
	cfg.End = cfg.End.UTC()
	c.state.Config = cfg
	c.state.Status = StatusConfigured
	c.emit(eventTypeConfigured, entityType, cfg)
	return nil
}

// Contribute pulls capital from contributor and credits its entitlement. The
// contribution that brings the total to the target finalizes the raise.
func (c *Controller) Contribute(ctx context.Context, now time.Time, contributor ledger.Account, capital uint64) error {
	if !contributor.Valid() {
		return ledger.ErrAccountRequired
	}
	if capital == 0 {
		return ErrInvalidAmount
	}
	switch c.state.Status {
	case StatusUnconfigured:
		return ErrNotConfigured
	case StatusFinalized, StatusFailed:
		return ErrAlreadyFinalized
	}
	cfg := c.state.Config
	if now.Before(cfg.Start) || now.After(cfg.End) {
		return ErrOutOfWindow
	}
	if cfg.KYCRequired && !c.state.KYCApproved[contributor] {
		return ErrKYCRequired
	}

	rec, existing := c.state.Contributions[contributor]
	cumulative, err := amount.Add(rec.Capital, capital)
	if err != nil {
		return err
	}
	if cumulative < cfg.MinContribution {
		return belowMinimum(cfg.MinContribution)
	}
	if cumulative > cfg.MaxContribution {
		return aboveMaximum(cfg.MaxContribution)
	}
	tokens, err := TokensFor(capital, cfg.Price)
	if err != nil {
		return err
	}
	if tokens == 0 {
		return zeroTokens(cfg.Price)
	}
	total, err := amount.Add(c.state.TotalRaised, capital)
	if err != nil {
		return err
	}
	totalTokens, err := amount.Add(c.state.TotalTokens, tokens)
	if err != nil {
		return err
	}
	if c.deps.Capital == nil {
		return ErrMissingCollaborator
	}

	c.activate()
	if !existing {
		rec = Contribution{Contributor: contributor, FirstAt: now.UTC()}
		c.state.Order = append(c.state.Order, contributor)
	}
	rec.Capital = cumulative
	rec.Tokens += tokens
	rec.LastAt = now.UTC()
	c.state.Contributions[contributor] = rec
	c.state.TotalRaised = total
	c.state.TotalTokens = totalTokens

	if err := c.deps.Capital.Transfer(contributor, Account, capital, "contribution"); err != nil {
		return err
	}
	c.emitFor(eventTypeContributed, "contribution", string(contributor), contributedPayload{
		Capital: capital, Tokens: tokens, TotalRaised: total,
	})

	if total >= cfg.Target {
		return c.finalize(ctx, now)
	}
	return nil
}

func (c *Controller) activate() {
	if c.state.Status == StatusConfigured {
		c.state.Status = StatusActive
		c.emit(eventTypeActivated, entityType, nil)
	}
}

// FinalizeICO closes a raise whose window has ended: Finalized with the
// split when the target was met, Failed otherwise.
func (c *Controller) FinalizeICO(ctx context.Context, now time.Time, caller ledger.Account) error {
	if caller != c.state.Owner {
		return ErrUnauthorized
	}
	switch c.state.Status {
	case StatusUnconfigured:
		return ErrNotConfigured
	case StatusFinalized, StatusFailed:
		return ErrAlreadyFinalized
	}
	if !now.After(c.state.Config.End) {
		return ErrStillOpen
	}
	if c.state.TotalRaised >= c.state.Config.Target {
		return c.finalize(ctx, now)
	}
	c.fail(now)
	return nil
}

func (c *Controller) fail(now time.Time) {
	c.state.Status = StatusFailed
	c.state.FinalizedAt = now.UTC()
	c.emit(eventTypeFailed, entityType, failedPayload{TotalRaised: c.state.TotalRaised, Target: c.state.Config.Target})
}

// finalize marks the raise Finalized and distributes the split. The
// liquidity step is best effort: a venue failure is recorded as owed.
func (c *Controller) finalize(ctx context.Context, now time.Time) error {
	split, err := ComputeSplit(c.state.TotalRaised, c.state.Config.Price)
	if err != nil {
		return err
	}
	if c.deps.Tokens == nil || c.deps.Vesting == nil {
		return ErrMissingCollaborator
	}
	c.state.Status = StatusFinalized
	c.state.FinalizedAt = now.UTC()
	c.state.Split = &split
	c.state.LiquidityOwed = split.Liquidity
	c.state.LiquidityTokensOwed = split.LiquidityTokens
	c.emit(eventTypeFinalized, entityType, split)

	if err := c.deps.Capital.Transfer(Account, c.state.Entity, split.Immediate, "immediate payout"); err != nil {
		return err
	}
	if err := c.deps.Capital.Transfer(Account, LiquidityAccount, split.Liquidity, "liquidity reserve"); err != nil {
		return err
	}
	if err := c.deps.Tokens.Mint(LiquidityAccount, split.LiquidityTokens, "liquidity pairing"); err != nil {
		return err
	}
	if err := c.deps.Vesting.InitializeVesting(now, Account, split.Vesting, split.VestingTokens); err != nil {
		return err
	}

	if err := c.seedLiquidity(ctx); err != nil {
		c.emit(EventTypeLiquidityDeferred, entityType, deferredPayload{
			Capital: c.state.LiquidityOwed,
			Tokens:  c.state.LiquidityTokensOwed,
			Reason:  err.Error(),
		})
	}
	return nil
}

func (c *Controller) seedLiquidity(ctx context.Context) error {
	if c.deps.Venue == nil {
		return liquidity.ErrUnavailable
	}
	receipt, err := c.deps.Venue.SeedLiquidity(ctx, c.state.LiquidityTokensOwed, c.state.LiquidityOwed)
	if err != nil {
		return err
	}
	c.state.LiquidityOwed = 0
	c.state.LiquidityTokensOwed = 0
	c.state.Receipts = append(c.state.Receipts, receipt)
	c.emit(eventTypeLiquiditySeeded, entityType, receipt)
	return nil
}

// ReconcileLiquidity retries seeding a liquidity bucket the venue refused.
func (c *Controller) ReconcileLiquidity(ctx context.Context, caller ledger.Account) (liquidity.PoolReceipt, error) {
	if caller != c.state.Owner {
		return liquidity.PoolReceipt{}, ErrUnauthorized
	}
	if c.state.LiquidityOwed == 0 && c.state.LiquidityTokensOwed == 0 {
		return liquidity.PoolReceipt{}, ErrNothingOwed
	}
	if err := c.seedLiquidity(ctx); err != nil {
		return liquidity.PoolReceipt{}, err
	}
	return c.state.Receipts[len(c.state.Receipts)-1], nil
}

// ClaimTokens mints the contributor's entitlement once the raise finalized.
func (c *Controller) ClaimTokens(now time.Time, contributor ledger.Account) (uint64, error) {
	if c.state.Status != StatusFinalized {
		return 0, ErrNotFinalized
	}
	rec, ok := c.state.Contributions[contributor]
	if !ok {
		return 0, ErrNoContribution
	}
	if rec.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if c.deps.Tokens == nil {
		return 0, ErrMissingCollaborator
	}
	rec.Claimed = true
	c.state.Contributions[contributor] = rec

	if err := c.deps.Tokens.Mint(contributor, rec.Tokens, "raise claim"); err != nil {
		return 0, err
	}
	c.emitFor(eventTypeClaimed, "contribution", string(contributor), claimPayload{Tokens: rec.Tokens, At: now.UTC()})
	return rec.Tokens, nil
}

// Refund returns the contributor's paid-in capital once the raise failed.
// A window that closed below target is marked Failed by the first refund.
func (c *Controller) Refund(now time.Time, contributor ledger.Account) (uint64, error) {
	if c.state.Status != StatusFailed {
		if c.state.Status.Terminal() || c.state.EffectiveStatus(now) != StatusFailed {
			return 0, ErrNotFailed
		}
		c.fail(now)
	}
	rec, ok := c.state.Contributions[contributor]
	if !ok {
		return 0, ErrNoContribution
	}
	if rec.Refunded {
		return 0, ErrAlreadyRefunded
	}
	if c.deps.Capital == nil {
		return 0, ErrMissingCollaborator
	}
	rec.Refunded = true
	c.state.Contributions[contributor] = rec

	if err := c.deps.Capital.Transfer(Account, contributor, rec.Capital, "raise refund"); err != nil {
		return 0, err
	}
	c.emitFor(eventTypeRefunded, "contribution", string(contributor), claimPayload{Capital: rec.Capital, At: now.UTC()})
	return rec.Capital, nil
}

// ApproveKYC adds account to the KYC allow-list.
func (c *Controller) ApproveKYC(caller, account ledger.Account) error {
	if caller != c.state.Owner {
		return ErrUnauthorized
	}
	if !account.Valid() {
		return ledger.ErrAccountRequired
	}
	c.state.KYCApproved[account] = true
	c.emitFor(eventTypeKYCApproved, "contribution", string(account), nil)
	return nil
}

// RevokeKYC removes account from the KYC allow-list. Recorded contributions
// are unaffected.
func (c *Controller) RevokeKYC(caller, account ledger.Account) error {
	if caller != c.state.Owner {
		return ErrUnauthorized
	}
	delete(c.state.KYCApproved, account)
	c.emitFor(eventTypeKYCRevoked, "contribution", string(account), nil)
	return nil
}

// TransferOwnership hands the owner role to next.
func (c *Controller) TransferOwnership(caller, next ledger.Account) error {
	if caller != c.state.Owner {
		return ErrUnauthorized
	}
	if !next.Valid() {
		return ledger.ErrAccountRequired
	}
	c.state.Owner = next
	c.emit(eventTypeOwnershipTransferred, entityType, ownershipPayload{From: caller, To: next})
	return nil
}

func (c *Controller) emit(typ event.Type, entityID string, payload any) {
	c.emitFor(typ, entityType, entityID, payload)
}

func (c *Controller) emitFor(typ event.Type, kind, entityID string, payload any) {
	event.Emit(c.deps.Recorder, event.New(typ, kind, entityID, payload))
}

type contributedPayload struct {
	Capital     uint64 `json:"capital"`
	Tokens      uint64 `json:"tokens"`
	TotalRaised uint64 `json:"total_raised"`
}

type failedPayload struct {
	TotalRaised uint64 `json:"total_raised"`
	Target      uint64 `json:"target"`
}

type deferredPayload struct {
	Capital uint64 `json:"capital"`
	Tokens  uint64 `json:"tokens"`
	Reason  string `json:"reason"`
}

type claimPayload struct {
	Tokens  uint64    `json:"tokens,omitempty"`
	Capital uint64    `json:"capital,omitempty"`
	At      time.Time `json:"at"`
}

type ownershipPayload struct {
	From ledger.Account `json:"from"`
	To   ledger.Account `json:"to"`
}
