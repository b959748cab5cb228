package governance

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
)

// Account is the ledger account of the governance engine.
const Account ledger.Account = "governance"

const (
	eventTypeDelegated            event.Type = "governance.delegated"
	eventTypeProposalOpened       event.Type = "governance.proposal_opened"
	eventTypeVoteCast             event.Type = "governance.vote_cast"
	eventTypeVoteExecuted         event.Type = "governance.vote_executed"
	eventTypeConfigUpdated        event.Type = "governance.config_updated"
	eventTypeEscrowChanged        event.Type = "governance.escrow_changed"
	eventTypeOwnershipTransferred event.Type = "governance.ownership_transferred"
)

// TokenLedger is the fan token ledger as seen by governance.
type TokenLedger interface {
	Mint(to ledger.Account, value uint64, reason string) error
	Burn(from ledger.Account, value uint64, reason string) error
	BalanceOf(account ledger.Account) uint64
	TotalSupply() uint64
}

// MilestoneEscrow receives the result of milestone votes.
type MilestoneEscrow interface {
	ReleaseMilestone(now time.Time, caller ledger.Account, id uint64, supporters []vesting.Supporter) error
	RejectMilestone(now time.Time, caller ledger.Account, id uint64) error
}

// Deps are the collaborators of the engine.
type Deps struct {
	Tokens   TokenLedger
	Escrow   MilestoneEscrow
	Recorder event.Recorder
}

// ProposalInput is the user input for a new proposal.
type ProposalInput struct {
	Kind        Kind            `json:"kind"`
	Subject     string          `json:"subject"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Engine is the governance voting engine.
type Engine struct {
	state State
	deps  Deps
}

// New returns an engine with cfg. The escrow account is the only caller
// allowed to open milestone votes; excluded accounts carry no voting power.
func New(owner, escrow ledger.Account, cfg Config, excluded []ledger.Account, deps Deps) *Engine {
	st := State{
		Owner:       owner,
		Escrow:      escrow,
		Config:      cfg,
		Delegations: map[ledger.Account]ledger.Account{},
		Excluded:    map[ledger.Account]bool{},
	}
	for _, account := range excluded {
		st.Excluded[account] = true
	}
	return &Engine{state: st, deps: deps}
}

// SetEscrowTarget wires the vesting escrow after construction.
func (e *Engine) SetEscrowTarget(escrow MilestoneEscrow) {
	e.deps.Escrow = escrow
}

// SetRecorder routes governance events to r.
func (e *Engine) SetRecorder(r event.Recorder) {
	e.deps.Recorder = r
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	return e.state.Clone()
}

// Restore replaces the engine state with a copy of s.
func (e *Engine) Restore(s State) {
	e.state = s.Clone()
}

// Config returns the parameters applied to new proposals.
func (e *Engine) Config() Config {
	return e.state.Config
}

// Delegation returns the delegate of account, if any.
func (e *Engine) Delegation(account ledger.Account) (ledger.Account, bool) {
	to, ok := e.state.Delegations[account]
	return to, ok
}

// VotingPower is the account's own balance unless delegated away, plus the
// balances of accounts delegating directly to it.
func (e *Engine) VotingPower(account ledger.Account) uint64 {
	var power uint64
	for _, src := range e.powerSources(account) {
		power += e.deps.Tokens.BalanceOf(src)
	}
	return power
}

// powerSources lists the accounts whose balances vote through account.
func (e *Engine) powerSources(account ledger.Account) []ledger.Account {
	if e.deps.Tokens == nil || e.state.Excluded[account] {
		return nil
	}
	var sources []ledger.Account
	if _, delegated := e.state.Delegations[account]; !delegated {
		sources = append(sources, account)
	}
	for from, to := range e.state.Delegations {
		if to != account || e.state.Excluded[from] {
			continue
		}
		sources = append(sources, from)
	}
	return sources
}

// VotingSupply is the token supply outside excluded accounts.
func (e *Engine) VotingSupply() uint64 {
	if e.deps.Tokens == nil {
		return 0
	}
	supply := e.deps.Tokens.TotalSupply()
	for account := range e.state.Excluded {
		supply -= e.deps.Tokens.BalanceOf(account)
	}
	return supply
}

// DelegateVotingPower replaces the caller's delegation. Delegating to self
// or to nobody clears it.
func (e *Engine) DelegateVotingPower(caller, to ledger.Account) error {
	if !caller.Valid() {
		return ledger.ErrAccountRequired
	}
	if e.state.Excluded[caller] {
		return ErrUnauthorized
	}
	if e.state.Excluded[to] {
		return invalidInput("to", "protocol accounts cannot receive delegations")
	}
	if !to.Valid() || to == caller {
		delete(e.state.Delegations, caller)
		to = ""
	} else {
		e.state.Delegations[caller] = to
	}
	e.emit(eventTypeDelegated, string(caller), delegatedPayload{To: to})
	return nil
}

// CreateProposal opens a parameter-change or generic proposal. The deposit is
// burned now and minted back when the vote executes.
func (e *Engine) CreateProposal(now time.Time, caller ledger.Account, in ProposalInput) (Proposal, error) {
	switch {
	case in.Kind == KindMilestoneRelease:
		return Proposal{}, ErrKindReserved
	case !in.Kind.Valid():
		return Proposal{}, invalidInput("kind", "unknown proposal kind")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Proposal{}, invalidInput("title", "title is required")
	}
	if in.Kind == KindParameterChange {
		if _, err := decodeConfig(in.Payload); err != nil {
			return Proposal{}, err
		}
	}
	if e.deps.Tokens == nil {
		return Proposal{}, ErrMissingCollaborator
	}
	cfg := e.state.Config
	required := max(cfg.MinVotingPower, 1)
	if e.VotingPower(caller) < required {
		return Proposal{}, insufficientPower(required)
	}
	if err := e.deps.Tokens.Burn(caller, cfg.ProposalDeposit, "proposal deposit"); err != nil {
		return Proposal{}, err
	}
	p := e.open(now, Proposal{
		Kind:        in.Kind,
		Subject:     in.Subject,
		Title:       in.Title,
		Description: in.Description,
		Payload:     append(json.RawMessage(nil), in.Payload...),
		Proposer:    caller,
		Deposit:     cfg.ProposalDeposit,
	}, cfg.QuorumBps)
	return p.clone(), nil
}

// OpenMilestoneVote opens a deposit-free milestone vote. Only the escrow may
// call it.
func (e *Engine) OpenMilestoneVote(now time.Time, caller ledger.Account, req vesting.VoteRequest) (uint64, error) {
	if caller != e.state.Escrow || caller == "" {
		return 0, ErrUnauthorized
	}
	quorum := e.state.Config.QuorumBps
	if req.QuorumOverrideBps != 0 {
		quorum = req.QuorumOverrideBps
	}
	p := e.open(now, Proposal{
		Kind:        KindMilestoneRelease,
		Subject:     "milestone:" + strconv.FormatUint(req.MilestoneID, 10),
		MilestoneID: req.MilestoneID,
		Title:       req.Title,
		Description: req.Description,
		Proposer:    caller,
	}, quorum)
	return p.ID, nil
}

func (e *Engine) open(now time.Time, p Proposal, quorumBps uint32) *Proposal {
	cfg := e.state.Config
	p.ID = uint64(len(e.state.Proposals)) + 1
	p.OpenedAt = now.UTC()
	p.ClosesAt = now.Add(cfg.VotingPeriod).UTC()
	p.SupplySnapshot = e.VotingSupply()
	p.QuorumBps = quorumBps
	p.ThresholdBps = cfg.ThresholdBps
	p.VotingReward = cfg.VotingReward
	p.Ballots = map[ledger.Account]Ballot{}
	p.Outcome = OutcomePending
	e.state.Proposals = append(e.state.Proposals, p)
	stored := &e.state.Proposals[len(e.state.Proposals)-1]
	e.emit(eventTypeProposalOpened, strconv.FormatUint(p.ID, 10), openedPayload{
		Kind:           p.Kind,
		Proposer:       p.Proposer,
		ClosesAt:       p.ClosesAt,
		SupplySnapshot: p.SupplySnapshot,
		QuorumBps:      p.QuorumBps,
		ThresholdBps:   p.ThresholdBps,
	})
	return stored
}

// CastVote records the caller's ballot with its current voting power and
// mints the proposal's fixed voting reward. A balance counts once per
// proposal: sources already counted by an earlier ballot are skipped.
func (e *Engine) CastVote(now time.Time, caller ledger.Account, id uint64, support bool) (Ballot, error) {
	p, err := e.proposal(id)
	if err != nil {
		return Ballot{}, err
	}
	if !p.IsVotingOpen(now) {
		return Ballot{}, ErrVotingClosed
	}
	if _, voted := p.Ballots[caller]; voted {
		return Ballot{}, ErrAlreadyVoted
	}
	var (
		power   uint64
		counted []ledger.Account
	)
	for _, src := range e.powerSources(caller) {
		if _, ok := p.Counted[src]; ok {
			continue
		}
		if power, err = amount.Add(power, e.deps.Tokens.BalanceOf(src)); err != nil {
			return Ballot{}, err
		}
		counted = append(counted, src)
	}
	if power == 0 {
		return Ballot{}, ErrNoVotingPower
	}
	ballot := Ballot{Voter: caller, Support: support, Power: power, CastAt: now.UTC()}
	if support {
		if p.ForWeight, err = amount.Add(p.ForWeight, power); err != nil {
			return Ballot{}, err
		}
	} else {
		if p.AgainstWeight, err = amount.Add(p.AgainstWeight, power); err != nil {
			return Ballot{}, err
		}
	}
	p.Ballots[caller] = ballot
	if p.Counted == nil {
		p.Counted = map[ledger.Account]ledger.Account{}
	}
	for _, src := range counted {
		p.Counted[src] = caller
	}
	reward := p.VotingReward

	if reward > 0 {
		if err := e.deps.Tokens.Mint(caller, reward, "voting reward"); err != nil {
			return Ballot{}, err
		}
	}
	e.emit(eventTypeVoteCast, strconv.FormatUint(id, 10), ballot)
	return ballot, nil
}

// ExecuteVote resolves a closed vote. The proposal is marked executed before
// the deposit refund and the escrow or config effects run.
func (e *Engine) ExecuteVote(now time.Time, caller ledger.Account, id uint64) (Proposal, error) {
	p, err := e.proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	if p.Executed {
		return Proposal{}, ErrAlreadyExecuted
	}
	if !now.After(p.ClosesAt) {
		return Proposal{}, ErrVotingStillOpen
	}
	quorumMet, approved := Tally(p.ForWeight, p.AgainstWeight, p.SupplySnapshot, p.QuorumBps, p.ThresholdBps)
	p.Executed = true
	p.ExecutedAt = now.UTC()
	p.QuorumMet = quorumMet
	p.Outcome = OutcomeRejected
	if approved {
		p.Outcome = OutcomeApproved
	}
	resolved := p.clone()

	if resolved.Deposit > 0 {
		if err := e.deps.Tokens.Mint(resolved.Proposer, resolved.Deposit, "proposal deposit refund"); err != nil {
			return Proposal{}, err
		}
	}
	switch resolved.Kind {
	case KindMilestoneRelease:
		if e.deps.Escrow == nil {
			return Proposal{}, ErrMissingCollaborator
		}
		if approved {
			err = e.deps.Escrow.ReleaseMilestone(now, Account, resolved.MilestoneID, supporters(resolved))
		} else {
			err = e.deps.Escrow.RejectMilestone(now, Account, resolved.MilestoneID)
		}
		if err != nil {
			return Proposal{}, err
		}
	case KindParameterChange:
		if approved {
			cfg, err := decodeConfig(resolved.Payload)
			if err != nil {
				return Proposal{}, err
			}
			e.state.Config = cfg
			e.emit(eventTypeConfigUpdated, "config", cfg)
		}
	}
	e.emit(eventTypeVoteExecuted, strconv.FormatUint(id, 10), executedPayload{
		Caller:        caller,
		ForWeight:     resolved.ForWeight,
		AgainstWeight: resolved.AgainstWeight,
		QuorumMet:     quorumMet,
		Outcome:       resolved.Outcome,
	})
	return resolved, nil
}

func supporters(p Proposal) []vesting.Supporter {
	out := make([]vesting.Supporter, 0, len(p.Ballots))
	for _, b := range p.Ballots {
		if b.Support {
			out = append(out, vesting.Supporter{Account: b.Voter, Power: b.Power})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

func decodeConfig(payload json.RawMessage) (Config, error) {
	if len(payload) == 0 {
		return Config{}, invalidConfig("payload", "parameter change needs a config payload")
	}
	var cfg Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return Config{}, invalidConfig("payload", "payload is not a config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UpdateDAOConfig replaces the parameters for future proposals.
func (e *Engine) UpdateDAOConfig(caller ledger.Account, cfg Config) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.state.Config = cfg
	e.emit(eventTypeConfigUpdated, "config", cfg)
	return nil
}

// IsVotingOpen reports whether proposal id accepts ballots at now.
func (e *Engine) IsVotingOpen(now time.Time, id uint64) (bool, error) {
	p, err := e.proposal(id)
	if err != nil {
		return false, err
	}
	return p.IsVotingOpen(now), nil
}

// Proposal returns a copy of proposal id.
func (e *Engine) Proposal(id uint64) (Proposal, error) {
	p, err := e.proposal(id)
	if err != nil {
		return Proposal{}, err
	}
	return p.clone(), nil
}

// Proposals returns copies of every proposal in id order.
func (e *Engine) Proposals() []Proposal {
	out := make([]Proposal, len(e.state.Proposals))
	for i, p := range e.state.Proposals {
		out[i] = p.clone()
	}
	return out
}

func (e *Engine) proposal(id uint64) (*Proposal, error) {
	if id == 0 || id > uint64(len(e.state.Proposals)) {
		return nil, proposalNotFound(id)
	}
	return &e.state.Proposals[id-1], nil
}

// SetEscrow changes the account allowed to open milestone votes.
func (e *Engine) SetEscrow(caller, escrow ledger.Account) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if !escrow.Valid() {
		return ledger.ErrAccountRequired
	}
	e.state.Escrow = escrow
	e.emit(eventTypeEscrowChanged, "config", delegatedPayload{To: escrow})
	return nil
}

// TransferOwnership hands the owner role to next.
func (e *Engine) TransferOwnership(caller, next ledger.Account) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if !next.Valid() {
		return ledger.ErrAccountRequired
	}
	e.state.Owner = next
	e.emit(eventTypeOwnershipTransferred, "config", delegatedPayload{To: next})
	return nil
}

func (e *Engine) emit(typ event.Type, entityID string, payload any) {
	entity := "proposal"
	switch typ {
	case eventTypeDelegated:
		entity = "delegation"
	case eventTypeConfigUpdated, eventTypeEscrowChanged, eventTypeOwnershipTransferred:
		entity = "governance"
	}
	event.Emit(e.deps.Recorder, event.New(typ, entity, entityID, payload))
}

type delegatedPayload struct {
	To ledger.Account `json:"to,omitempty"`
}

type openedPayload struct {
	Kind           Kind           `json:"kind"`
	Proposer       ledger.Account `json:"proposer"`
	ClosesAt       time.Time      `json:"closes_at"`
	SupplySnapshot uint64         `json:"supply_snapshot"`
	QuorumBps      uint32         `json:"quorum_bps"`
	ThresholdBps   uint32         `json:"threshold_bps"`
}

type executedPayload struct {
	Caller        ledger.Account `json:"caller"`
	ForWeight     uint64         `json:"for_weight"`
	AgainstWeight uint64         `json:"against_weight"`
	QuorumMet     bool           `json:"quorum_met"`
	Outcome       Outcome        `json:"outcome"`
}
