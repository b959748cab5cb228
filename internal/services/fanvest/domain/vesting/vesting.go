package vesting

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
)

// Account is the ledger account holding escrowed capital.
const Account ledger.Account = "vesting"

// DefaultBeneficiaryShareBps gives the beneficiary half of each token reward.
const DefaultBeneficiaryShareBps = 5_000

const (
	eventTypeInitialized          event.Type = "vesting.initialized"
	eventTypeMilestoneCreated     event.Type = "vesting.milestone_created"
	eventTypeMilestoneAttested    event.Type = "vesting.milestone_attested"
	eventTypeMilestoneSubmitted   event.Type = "vesting.milestone_submitted"
	eventTypeMilestoneVoteOpened  event.Type = "vesting.milestone_vote_opened"
	eventTypeMilestoneApproved    event.Type = "vesting.milestone_approved"
	eventTypeMilestoneReleased    event.Type = "vesting.milestone_released"
	eventTypeMilestoneRejected    event.Type = "vesting.milestone_rejected"
	eventTypeMilestoneExpired     event.Type = "vesting.milestone_expired"
	eventTypeDeadlineExtended     event.Type = "vesting.deadline_extended"
	eventTypeRoleChanged          event.Type = "vesting.role_changed"
	eventTypeOwnershipTransferred event.Type = "vesting.ownership_transferred"
)

// CapitalMover moves capital as the vesting account.
type CapitalMover interface {
	Transfer(from, to ledger.Account, value uint64, reason string) error
}

// TokenMinter mints reward tokens as the vesting account.
type TokenMinter interface {
	Mint(to ledger.Account, value uint64, reason string) error
}

// VoteRequest asks governance to open a vote on a milestone.
type VoteRequest struct {
	MilestoneID       uint64
	Title             string
	Description       string
	QuorumOverrideBps uint32
}

// VoteOpener opens milestone votes and returns the vote id.
type VoteOpener interface {
	OpenMilestoneVote(now time.Time, caller ledger.Account, req VoteRequest) (uint64, error)
}

// Supporter is a FOR voter and the power it cast.
type Supporter struct {
	Account ledger.Account
	Power   uint64
}

// Payout is a token reward owed to one account.
type Payout struct {
	Account ledger.Account
	Amount  uint64
}

// Options configure a new escrow.
type Options struct {
	Governance          ledger.Account
	BeneficiaryShareBps uint32
	AutoOpenVotes       bool
}

// Deps are the collaborators of the escrow.
type Deps struct {
	Capital  CapitalMover
	Tokens   TokenMinter
	Votes    VoteOpener
	Recorder event.Recorder
}

// Escrow is the milestone vesting escrow.
type Escrow struct {
	state State
	deps  Deps
}

// New returns an uninitialized escrow.
func New(owner, beneficiary ledger.Account, opts Options, deps Deps) *Escrow {
	share := opts.BeneficiaryShareBps
	if share > amount.BasisPoints {
		share = amount.BasisPoints
	}
	return &Escrow{
		state: State{
			Owner:               owner,
			Beneficiary:         beneficiary,
			Governance:          opts.Governance,
			Initializers:        map[ledger.Account]bool{},
			Oracles:             map[ledger.Account]bool{},
			BeneficiaryShareBps: share,
			AutoOpenVotes:       opts.AutoOpenVotes,
		},
		deps: deps,
	}
}

// SetVoteOpener wires the governance engine after construction.
func (e *Escrow) SetVoteOpener(v VoteOpener) {
	e.deps.Votes = v
}

// SetRecorder routes vesting events to r.
func (e *Escrow) SetRecorder(r event.Recorder) {
	e.deps.Recorder = r
}

// State returns a copy of the escrow state.
func (e *Escrow) State() State {
	return e.state.Clone()
}

// Restore replaces the escrow state with a copy of s.
func (e *Escrow) Restore(s State) {
	e.state = s.Clone()
}

// IsInitialized reports whether the escrow has been funded.
func (e *Escrow) IsInitialized() bool {
	return e.state.Initialized
}

// InitializeVesting funds the escrow once, pulling capital from the caller's
// account. Only the owner or a registered initializer may call it.
func (e *Escrow) InitializeVesting(now time.Time, caller ledger.Account, capital, tokenReward uint64) error {
	if caller != e.state.Owner && !e.state.Initializers[caller] {
		return ErrUnauthorized
	}
	if e.state.Initialized {
		return ErrAlreadyInitialized
	}
	if capital == 0 {
		return ErrInvalidAmount
	}
	if e.deps.Capital == nil {
		return ErrMissingCollaborator
	}
	e.state.Initialized = true
	e.state.InitializedAt = now.UTC()
	e.state.CapitalReserve = capital
	e.state.TokenRewardReserve = tokenReward

	if err := e.deps.Capital.Transfer(caller, Account, capital, "vesting reserve"); err != nil {
		return err
	}
	e.emit(eventTypeInitialized, "vesting", initializedPayload{
		Funder: caller, Capital: capital, TokenReward: tokenReward,
	})
	return nil
}

// CreateMilestone adds a Pending milestone. Committed releases and rewards
// across all milestones must fit the reserves.
func (e *Escrow) CreateMilestone(now time.Time, caller ledger.Account, spec MilestoneSpec) (Milestone, error) {
	if caller != e.state.Owner {
		return Milestone{}, ErrUnauthorized
	}
	if !e.state.Initialized {
		return Milestone{}, ErrNotInitialized
	}
	spec.Title = strings.TrimSpace(spec.Title)
	if spec.Title == "" {
		return Milestone{}, invalidInput("title", "title is required")
	}
	if spec.ReleaseAmount == 0 && spec.TokenReward == 0 {
		return Milestone{}, ErrInvalidAmount
	}
	if spec.QuorumOverrideBps > amount.BasisPoints {
		return Milestone{}, invalidInput("quorum_override_bps", "quorum override above 10000 bps")
	}
	if !spec.Deadline.After(now) {
		return Milestone{}, ErrDeadlineInPast
	}
	capital, tokens := e.state.committed()
	capital, err := amount.Add(capital, spec.ReleaseAmount)
	if err != nil {
		return Milestone{}, err
	}
	tokens, err = amount.Add(tokens, spec.TokenReward)
	if err != nil {
		return Milestone{}, err
	}
	if capital > e.state.CapitalReserve || tokens > e.state.TokenRewardReserve {
		return Milestone{}, ErrExceedsReserve
	}

	m := Milestone{
		ID:                uint64(len(e.state.Milestones)) + 1,
		Title:             spec.Title,
		Description:       spec.Description,
		Category:          spec.Category,
		ReleaseAmount:     spec.ReleaseAmount,
		TokenReward:       spec.TokenReward,
		Deadline:          spec.Deadline.UTC(),
		Status:            StatusPending,
		OracleRequired:    spec.OracleRequired,
		QuorumOverrideBps: spec.QuorumOverrideBps,
		CreatedAt:         now.UTC(),
	}
	e.state.Milestones = append(e.state.Milestones, m)
	e.emitMilestone(eventTypeMilestoneCreated, m.ID, m)
	return m, nil
}

// AttestMilestone records an oracle attestation on a Pending milestone.
func (e *Escrow) AttestMilestone(now time.Time, caller ledger.Account, id uint64) (Milestone, error) {
	if !e.state.Oracles[caller] {
		return Milestone{}, ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	if status := m.EffectiveStatus(now); status != StatusPending {
		if status == StatusExpired {
			return Milestone{}, ErrExpired
		}
		return Milestone{}, invalidTransition(status, StatusPending)
	}
	m.OracleAttested = true
	m.AttestedBy = caller
	e.emitMilestone(eventTypeMilestoneAttested, id, attestedPayload{Oracle: caller})
	return *m, nil
}

// SubmitMilestoneForReview moves a Pending milestone to review. With
// auto-open on, governance opens the vote in the same call and the milestone
// ends in Voting.
func (e *Escrow) SubmitMilestoneForReview(now time.Time, caller ledger.Account, id uint64, evidenceRef, note string) (Milestone, error) {
	if caller != e.state.Beneficiary {
		return Milestone{}, ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	switch status := m.EffectiveStatus(now); status {
	case StatusPending:
	case StatusExpired:
		return Milestone{}, ErrExpired
	default:
		return Milestone{}, invalidTransition(status, StatusSubmittedForReview)
	}
	if m.OracleRequired && !m.OracleAttested {
		return Milestone{}, ErrAttestationRequired
	}
	evidenceRef = strings.TrimSpace(evidenceRef)
	if evidenceRef == "" {
		return Milestone{}, invalidInput("evidence_ref", "evidence reference is required")
	}

	m.Status = StatusSubmittedForReview
	m.EvidenceRef = evidenceRef
	m.ReviewNote = note
	m.SubmittedAt = now.UTC()
	e.emitMilestone(eventTypeMilestoneSubmitted, id, submittedPayload{EvidenceRef: evidenceRef, Note: note})

	if !e.state.AutoOpenVotes {
		return *m, nil
	}
	return e.openVote(now, id)
}

// RequestVote opens the vote for a milestone left in SubmittedForReview.
func (e *Escrow) RequestVote(now time.Time, caller ledger.Account, id uint64) (Milestone, error) {
	if caller != e.state.Beneficiary && caller != e.state.Owner {
		return Milestone{}, ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	switch status := m.EffectiveStatus(now); status {
	case StatusSubmittedForReview:
	case StatusExpired:
		return Milestone{}, ErrExpired
	default:
		return Milestone{}, invalidTransition(status, StatusVoting)
	}
	return e.openVote(now, id)
}

// openVote marks the milestone Voting before calling governance.
func (e *Escrow) openVote(now time.Time, id uint64) (Milestone, error) {
	if e.deps.Votes == nil {
		return Milestone{}, ErrMissingCollaborator
	}
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	m.Status = StatusVoting
	req := VoteRequest{
		MilestoneID:       m.ID,
		Title:             m.Title,
		Description:       m.Description,
		QuorumOverrideBps: m.QuorumOverrideBps,
	}
	voteID, err := e.deps.Votes.OpenMilestoneVote(now, Account, req)
	if err != nil {
		return Milestone{}, err
	}
	if m, err = e.milestone(id); err != nil {
		return Milestone{}, err
	}
	m.VoteID = voteID
	e.emitMilestone(eventTypeMilestoneVoteOpened, id, voteOpenedPayload{VoteID: voteID})
	return *m, nil
}

// ReleaseMilestone pays out an approved milestone. Only governance may call
// it. The milestone is marked Released before any capital or token moves.
func (e *Escrow) ReleaseMilestone(now time.Time, caller ledger.Account, id uint64, supporters []Supporter) error {
	if caller != e.state.Governance || caller == "" {
		return ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return err
	}
	switch m.Status {
	case StatusReleased:
		return ErrAlreadyReleased
	case StatusVoting, StatusApproved:
	default:
		return ErrNotApproved
	}
	capitalReleased, err := amount.Add(e.state.CapitalReleased, m.ReleaseAmount)
	if err != nil {
		return err
	}
	tokensReleased, err := amount.Add(e.state.TokenRewardsReleased, m.TokenReward)
	if err != nil {
		return err
	}
	if capitalReleased > e.state.CapitalReserve || tokensReleased > e.state.TokenRewardReserve {
		return ErrExceedsReserve
	}
	if e.deps.Capital == nil || e.deps.Tokens == nil {
		return ErrMissingCollaborator
	}

	if m.Status == StatusVoting {
		m.Status = StatusApproved
		e.emitMilestone(eventTypeMilestoneApproved, id, nil)
	}
	m.Status = StatusReleased
	m.ResolvedAt = now.UTC()
	e.state.CapitalReleased = capitalReleased
	e.state.TokenRewardsReleased = tokensReleased
	release := *m

	if err := e.deps.Capital.Transfer(Account, e.state.Beneficiary, release.ReleaseAmount, "milestone release"); err != nil {
		return err
	}
	payouts := SplitReward(release.TokenReward, e.state.BeneficiaryShareBps, e.state.Beneficiary, supporters)
	for _, p := range payouts {
		if err := e.deps.Tokens.Mint(p.Account, p.Amount, "milestone reward"); err != nil {
			return err
		}
	}
	e.emitMilestone(eventTypeMilestoneReleased, id, releasedPayload{
		Capital:     release.ReleaseAmount,
		TokenReward: release.TokenReward,
		Supporters:  len(supporters),
	})
	return nil
}

// SplitReward divides reward between the beneficiary and FOR voters. The
// beneficiary receives shareBps plus truncation dust; supporters split the
// rest pro rata to cast power. The result is ordered by account with the
// beneficiary's entry first and omits zero payouts.
func SplitReward(reward uint64, shareBps uint32, beneficiary ledger.Account, supporters []Supporter) []Payout {
	if reward == 0 {
		return nil
	}
	voters := make([]Supporter, 0, len(supporters))
	var totalPower uint64
	for _, s := range supporters {
		if s.Power == 0 || !s.Account.Valid() {
			continue
		}
		sum, err := amount.Add(totalPower, s.Power)
		if err != nil {
			break
		}
		totalPower = sum
		voters = append(voters, s)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].Account < voters[j].Account })

	beneficiaryShare := amount.Share(reward, shareBps)
	pool := reward - beneficiaryShare
	if totalPower == 0 {
		beneficiaryShare, pool = reward, 0
	}

	out := make([]Payout, 0, len(voters)+1)
	var paid uint64
	for _, v := range voters {
		if pool == 0 {
			break
		}
		share, err := amount.MulDiv(pool, v.Power, totalPower)
		if err != nil || share == 0 {
			continue
		}
		paid += share
		out = append(out, Payout{Account: v.Account, Amount: share})
	}
	beneficiaryShare += pool - paid
	if beneficiaryShare > 0 {
		out = append([]Payout{{Account: beneficiary, Amount: beneficiaryShare}}, out...)
	}
	return out
}

// RejectMilestone closes a milestone whose vote failed. The capital stays in
// escrow. Only governance may call it.
func (e *Escrow) RejectMilestone(now time.Time, caller ledger.Account, id uint64) error {
	if caller != e.state.Governance || caller == "" {
		return ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return err
	}
	switch m.Status {
	case StatusVoting:
	case StatusReleased:
		return ErrAlreadyReleased
	default:
		return invalidTransition(m.Status, StatusRejected)
	}
	m.Status = StatusRejected
	m.ResolvedAt = now.UTC()
	e.emitMilestone(eventTypeMilestoneRejected, id, nil)
	return nil
}

// ExtendDeadline moves a non-terminal milestone's deadline later. Amounts and
// votes are untouched.
func (e *Escrow) ExtendDeadline(now time.Time, caller ledger.Account, id uint64, deadline time.Time) (Milestone, error) {
	if caller != e.state.Owner {
		return Milestone{}, ErrUnauthorized
	}
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	status := m.EffectiveStatus(now)
	if status == StatusExpired {
		return Milestone{}, ErrExpired
	}
	if status.Terminal() {
		return Milestone{}, invalidTransition(status, status)
	}
	if !deadline.After(now) {
		return Milestone{}, ErrDeadlineInPast
	}
	if !deadline.After(m.Deadline) {
		return Milestone{}, ErrInvalidDeadline
	}
	previous := m.Deadline
	m.Deadline = deadline.UTC()
	e.emitMilestone(eventTypeDeadlineExtended, id, extendedPayload{From: previous, To: m.Deadline})
	return *m, nil
}

// ExpireMilestone persists the Expired status of an overdue milestone.
func (e *Escrow) ExpireMilestone(now time.Time, id uint64) (Milestone, error) {
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	if !m.IsOverdue(now) {
		return Milestone{}, ErrNotOverdue
	}
	m.Status = StatusExpired
	m.ResolvedAt = now.UTC()
	e.emitMilestone(eventTypeMilestoneExpired, id, nil)
	return *m, nil
}

// IsOverdue reports whether milestone id passed its deadline while Pending or
// SubmittedForReview.
func (e *Escrow) IsOverdue(now time.Time, id uint64) (bool, error) {
	m, err := e.milestone(id)
	if err != nil {
		return false, err
	}
	return m.IsOverdue(now), nil
}

// Milestone returns milestone id with its effective status.
func (e *Escrow) Milestone(now time.Time, id uint64) (Milestone, error) {
	m, err := e.milestone(id)
	if err != nil {
		return Milestone{}, err
	}
	out := *m
	out.Status = m.EffectiveStatus(now)
	return out, nil
}

// Milestones returns every milestone with its effective status.
func (e *Escrow) Milestones(now time.Time) []Milestone {
	out := make([]Milestone, len(e.state.Milestones))
	for i, m := range e.state.Milestones {
		m.Status = m.EffectiveStatus(now)
		out[i] = m
	}
	return out
}

func (e *Escrow) milestone(id uint64) (*Milestone, error) {
	if id == 0 || id > uint64(len(e.state.Milestones)) {
		return nil, milestoneNotFound(id)
	}
	return &e.state.Milestones[id-1], nil
}

// AddInitializer allows account to call InitializeVesting.
func (e *Escrow) AddInitializer(caller, account ledger.Account) error {
	return e.setRole(caller, e.state.Initializers, "initializer", account, true)
}

// RemoveInitializer revokes an initializer.
func (e *Escrow) RemoveInitializer(caller, account ledger.Account) error {
	return e.setRole(caller, e.state.Initializers, "initializer", account, false)
}

// AddOracle allows account to attest milestones.
func (e *Escrow) AddOracle(caller, account ledger.Account) error {
	return e.setRole(caller, e.state.Oracles, "oracle", account, true)
}

// RemoveOracle revokes an oracle.
func (e *Escrow) RemoveOracle(caller, account ledger.Account) error {
	return e.setRole(caller, e.state.Oracles, "oracle", account, false)
}

func (e *Escrow) setRole(caller ledger.Account, set map[ledger.Account]bool, role string, account ledger.Account, grant bool) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if !account.Valid() {
		return ledger.ErrAccountRequired
	}
	if grant {
		set[account] = true
	} else {
		delete(set, account)
	}
	e.emit(eventTypeRoleChanged, "vesting", rolePayload{Role: role, Account: account, Granted: grant})
	return nil
}

// SetGovernance changes the account allowed to release and reject.
func (e *Escrow) SetGovernance(caller, account ledger.Account) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if !account.Valid() {
		return ledger.ErrAccountRequired
	}
	e.state.Governance = account
	e.emit(eventTypeRoleChanged, "vesting", rolePayload{Role: "governance", Account: account, Granted: true})
	return nil
}

// SetAutoOpenVotes toggles opening votes from SubmitMilestoneForReview.
func (e *Escrow) SetAutoOpenVotes(caller ledger.Account, enabled bool) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	e.state.AutoOpenVotes = enabled
	return nil
}

// TransferOwnership hands the owner role to next.
func (e *Escrow) TransferOwnership(caller, next ledger.Account) error {
	if caller != e.state.Owner {
		return ErrUnauthorized
	}
	if !next.Valid() {
		return ledger.ErrAccountRequired
	}
	e.state.Owner = next
	e.emit(eventTypeOwnershipTransferred, "vesting", rolePayload{Role: "owner", Account: next, Granted: true})
	return nil
}

func (e *Escrow) emit(typ event.Type, entityID string, payload any) {
	event.Emit(e.deps.Recorder, event.New(typ, "vesting", entityID, payload))
}

func (e *Escrow) emitMilestone(typ event.Type, id uint64, payload any) {
	event.Emit(e.deps.Recorder, event.New(typ, "milestone", strconv.FormatUint(id, 10), payload))
}

type initializedPayload struct {
	Funder      ledger.Account `json:"funder"`
	Capital     uint64         `json:"capital"`
	TokenReward uint64         `json:"token_reward"`
}

type attestedPayload struct {
	Oracle ledger.Account `json:"oracle"`
}

type submittedPayload struct {
	EvidenceRef string `json:"evidence_ref"`
	Note        string `json:"note,omitempty"`
}

type voteOpenedPayload struct {
	VoteID uint64 `json:"vote_id"`
}

type releasedPayload struct {
	Capital     uint64 `json:"capital"`
	TokenReward uint64 `json:"token_reward"`
	Supporters  int    `json:"supporters"`
}

type extendedPayload struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type rolePayload struct {
	Role    string         `json:"role"`
	Account ledger.Account `json:"account"`
	Granted bool           `json:"granted"`
}
