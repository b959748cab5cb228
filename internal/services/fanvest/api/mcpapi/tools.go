package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/fanvest/internal/services/fanvest/app"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
)

const (
	serverName    = "fanvest"
	serverVersion = "1.0.0"
)

// RaiseStatusInput is empty; the tool reports the single raise.
type RaiseStatusInput struct{}

// RaiseStatusResult is the raise summary.
type RaiseStatusResult struct {
	Status        string `json:"status" jsonschema:"effective raise status"`
	Target        uint64 `json:"target" jsonschema:"capital that finalizes the raise"`
	Price         uint64 `json:"price" jsonschema:"capital paid per 1000000 token minor units"`
	TotalRaised   uint64 `json:"total_raised" jsonschema:"capital contributed so far"`
	TotalTokens   uint64 `json:"total_tokens" jsonschema:"tokens owed to contributors"`
	Contributors  int    `json:"contributors" jsonschema:"number of distinct contributors"`
	Start         string `json:"start,omitempty" jsonschema:"RFC3339 window start"`
	End           string `json:"end,omitempty" jsonschema:"RFC3339 window end"`
	Immediate     uint64 `json:"immediate" jsonschema:"capital paid to the entity at finalization"`
	Liquidity     uint64 `json:"liquidity" jsonschema:"capital reserved for the liquidity pool"`
	Vesting       uint64 `json:"vesting" jsonschema:"capital locked in the milestone escrow"`
	LiquidityOwed uint64 `json:"liquidity_owed" jsonschema:"liquidity capital not yet accepted by the venue"`
}

// MilestoneListInput filters milestones by status.
type MilestoneListInput struct {
	Status string `json:"status,omitempty" jsonschema:"optional status filter such as voting or released"`
}

// MilestoneSummary is one milestone.
type MilestoneSummary struct {
	ID            uint64 `json:"id" jsonschema:"milestone identifier"`
	Title         string `json:"title" jsonschema:"milestone title"`
	Status        string `json:"status" jsonschema:"effective milestone status"`
	ReleaseAmount uint64 `json:"release_amount" jsonschema:"capital released on approval"`
	TokenReward   uint64 `json:"token_reward" jsonschema:"tokens minted on approval"`
	Deadline      string `json:"deadline" jsonschema:"RFC3339 review deadline"`
	VoteID        uint64 `json:"vote_id,omitempty" jsonschema:"governance proposal deciding the milestone"`
	Overdue       bool   `json:"overdue" jsonschema:"deadline passed while awaiting review"`
}

// MilestoneListResult lists milestones.
type MilestoneListResult struct {
	Milestones []MilestoneSummary `json:"milestones" jsonschema:"matching milestones"`
}

// ProposalGetInput selects a proposal.
type ProposalGetInput struct {
	ID uint64 `json:"id" jsonschema:"proposal identifier"`
}

// ProposalGetResult is one proposal and its tally.
type ProposalGetResult struct {
	ID            uint64 `json:"id" jsonschema:"proposal identifier"`
	Kind          string `json:"kind" jsonschema:"milestone_release, parameter_change or generic"`
	Title         string `json:"title" jsonschema:"proposal title"`
	Proposer      string `json:"proposer" jsonschema:"account that opened the proposal"`
	ClosesAt      string `json:"closes_at" jsonschema:"RFC3339 end of voting"`
	VotingOpen    bool   `json:"voting_open" jsonschema:"whether ballots are accepted now"`
	ForWeight     uint64 `json:"for_weight" jsonschema:"voting power cast in favor"`
	AgainstWeight uint64 `json:"against_weight" jsonschema:"voting power cast against"`
	Ballots       int    `json:"ballots" jsonschema:"number of ballots"`
	Supply        uint64 `json:"supply" jsonschema:"voting supply captured at open"`
	QuorumBps     uint32 `json:"quorum_bps" jsonschema:"quorum in basis points"`
	ThresholdBps  uint32 `json:"threshold_bps" jsonschema:"approval threshold in basis points"`
	Executed      bool   `json:"executed" jsonschema:"whether the vote was executed"`
	Outcome       string `json:"outcome" jsonschema:"pending, approved or rejected"`
}

// VotingPowerInput selects an account.
type VotingPowerInput struct {
	Account string `json:"account" jsonschema:"account identifier"`
}

// VotingPowerResult is an account's governance weight.
type VotingPowerResult struct {
	Account      string `json:"account" jsonschema:"account identifier"`
	Balance      uint64 `json:"balance" jsonschema:"fan token balance"`
	Power        uint64 `json:"power" jsonschema:"voting power after delegation"`
	DelegatedTo  string `json:"delegated_to,omitempty" jsonschema:"delegate of this account"`
	VotingSupply uint64 `json:"voting_supply" jsonschema:"token supply eligible to vote"`
}

// RaiseStatusTool defines the raise_status tool.
func RaiseStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "raise_status",
		Description: "Report the fundraise status, totals and 20/30/50 split",
	}
}

// MilestoneListTool defines the milestone_list tool.
func MilestoneListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "milestone_list",
		Description: "List vesting milestones with their effective status",
	}
}

// ProposalGetTool defines the proposal_get tool.
func ProposalGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "proposal_get",
		Description: "Get a governance proposal and its current tally",
	}
}

// VotingPowerTool defines the voting_power tool.
func VotingPowerTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "voting_power",
		Description: "Get the token balance and delegated voting power of an account",
	}
}

// RaiseStatusHandler reports the raise.
func RaiseStatusHandler(p *app.Protocol) mcp.ToolHandlerFor[RaiseStatusInput, RaiseStatusResult] {
	return func(context.Context, *mcp.CallToolRequest, RaiseStatusInput) (*mcp.CallToolResult, RaiseStatusResult, error) {
		view := p.Raise()
		result := RaiseStatusResult{
			Status:        string(view.Status),
			Target:        view.Config.Target,
			Price:         view.Config.Price,
			TotalRaised:   view.TotalRaised,
			TotalTokens:   view.TotalTokens,
			Contributors:  view.Contributors,
			LiquidityOwed: view.LiquidityOwed,
		}
		if view.Configured {
			result.Start = formatTime(view.Config.Start)
			result.End = formatTime(view.Config.End)
		}
		if view.Split != nil {
			result.Immediate = view.Split.Immediate
			result.Liquidity = view.Split.Liquidity
			result.Vesting = view.Split.Vesting
		}
		return nil, result, nil
	}
}

// MilestoneListHandler lists milestones.
func MilestoneListHandler(p *app.Protocol) mcp.ToolHandlerFor[MilestoneListInput, MilestoneListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input MilestoneListInput) (*mcp.CallToolResult, MilestoneListResult, error) {
		now := p.Now()
		result := MilestoneListResult{Milestones: []MilestoneSummary{}}
		for _, m := range p.Milestones() {
			if input.Status != "" && string(m.Status) != input.Status {
				continue
			}
			result.Milestones = append(result.Milestones, milestoneSummary(m, now))
		}
		return nil, result, nil
	}
}

func milestoneSummary(m vesting.Milestone, now time.Time) MilestoneSummary {
	return MilestoneSummary{
		ID:            m.ID,
		Title:         m.Title,
		Status:        string(m.Status),
		ReleaseAmount: m.ReleaseAmount,
		TokenReward:   m.TokenReward,
		Deadline:      formatTime(m.Deadline),
		VoteID:        m.VoteID,
		Overdue:       m.IsOverdue(now),
	}
}

// ProposalGetHandler reports one proposal.
func ProposalGetHandler(p *app.Protocol) mcp.ToolHandlerFor[ProposalGetInput, ProposalGetResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ProposalGetInput) (*mcp.CallToolResult, ProposalGetResult, error) {
		prop, err := p.Proposal(input.ID)
		if err != nil {
			return nil, ProposalGetResult{}, fmt.Errorf("get proposal %d: %w", input.ID, err)
		}
		open, _ := p.IsVotingOpen(input.ID)
		return nil, proposalResult(prop, open), nil
	}
}

func proposalResult(prop governance.Proposal, open bool) ProposalGetResult {
	return ProposalGetResult{
		ID:            prop.ID,
		Kind:          string(prop.Kind),
		Title:         prop.Title,
		Proposer:      string(prop.Proposer),
		ClosesAt:      formatTime(prop.ClosesAt),
		VotingOpen:    open,
		ForWeight:     prop.ForWeight,
		AgainstWeight: prop.AgainstWeight,
		Ballots:       len(prop.Ballots),
		Supply:        prop.SupplySnapshot,
		QuorumBps:     prop.QuorumBps,
		ThresholdBps:  prop.ThresholdBps,
		Executed:      prop.Executed,
		Outcome:       string(prop.Outcome),
	}
}

// VotingPowerHandler reports an account's weight.
func VotingPowerHandler(p *app.Protocol) mcp.ToolHandlerFor[VotingPowerInput, VotingPowerResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input VotingPowerInput) (*mcp.CallToolResult, VotingPowerResult, error) {
		account := ledger.Account(input.Account)
		if !account.Valid() {
			return nil, VotingPowerResult{}, fmt.Errorf("account is required")
		}
		view := p.VotingPower(account)
		return nil, VotingPowerResult{
			Account:      string(view.Account),
			Balance:      view.Balance,
			Power:        view.Power,
			DelegatedTo:  string(view.DelegatedTo),
			VotingSupply: view.VotingSupply,
		}, nil
	}
}

// NewServer registers the read-only tools against p.
func NewServer(p *app.Protocol) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(server, RaiseStatusTool(), RaiseStatusHandler(p))
	mcp.AddTool(server, MilestoneListTool(), MilestoneListHandler(p))
	mcp.AddTool(server, ProposalGetTool(), ProposalGetHandler(p))
	mcp.AddTool(server, VotingPowerTool(), VotingPowerHandler(p))
	return server
}

// NewHandler serves the tools over streamable HTTP.
func NewHandler(p *app.Protocol) http.Handler {
	server := NewServer(p)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
