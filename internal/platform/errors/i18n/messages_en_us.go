package i18n

var enUSCatalog = NewCatalog(BaseLocale, map[Code]string{
	"UNKNOWN":                               "Something went wrong.",
	"INVALID_INPUT":                         "The request is invalid{{if .Field}}: {{.Field}}{{end}}.",
	"INVALID_AMOUNT":                        "The amount must be greater than zero.",
	"AMOUNT_OVERFLOW":                       "The amount is too large.",
	"UNAUTHORIZED":                          "You are not allowed to perform this action.",
	"KYC_REQUIRED":                          "Identity verification is required before contributing.",
	"INSUFFICIENT_BALANCE":                  "The account balance is too low.",
	"RAISE_OUT_OF_WINDOW":                   "The raise is not accepting contributions right now.",
	"RAISE_BELOW_MINIMUM":                   "Your total contribution would be below the minimum of {{.Min}}.",
	"RAISE_ABOVE_MAXIMUM":                   "Your total contribution would exceed the maximum of {{.Max}}.",
	"RAISE_INVALID_CONFIG":                  "The raise configuration is invalid{{if .Field}}: {{.Field}}{{end}}.",
	"RAISE_NOT_CONFIGURED":                  "The raise has not been configured yet.",
	"RAISE_ALREADY_CONFIGURED":              "The raise is already configured.",
	"RAISE_ALREADY_FINALIZED":               "The raise has already been finalized.",
	"RAISE_STILL_OPEN":                      "The raise window has not ended yet.",
	"RAISE_NOT_FINALIZED":                   "Tokens can be claimed only after a successful raise.",
	"RAISE_NOT_FAILED":                      "Refunds are available only when a raise fails.",
	"RAISE_NO_CONTRIBUTION":                 "No contribution was found for this account.",
	"RAISE_ALREADY_CLAIMED":                 "Tokens were already claimed.",
	"RAISE_ALREADY_REFUNDED":                "The contribution was already refunded.",
	"RAISE_NOTHING_OWED":                    "There is no outstanding liquidity to seed.",
	"LIQUIDITY_VENUE_UNAVAILABLE":           "The liquidity venue is unavailable. Try again later.",
	"VESTING_NOT_INITIALIZED":               "The vesting account has not been funded yet.",
	"VESTING_ALREADY_INITIALIZED":           "The vesting account is already funded.",
	"VESTING_EXCEEDS_RESERVE":               "The milestone would exceed the vesting reserve.",
	"MILESTONE_DEADLINE_IN_PAST":            "The milestone deadline must be in the future.",
	"MILESTONE_INVALID_DEADLINE":            "The new deadline must be later than the current one.",
	"MILESTONE_NOT_FOUND":                   "Milestone {{.MilestoneID}} was not found.",
	"MILESTONE_INVALID_TRANSITION":          "The milestone cannot move from {{.From}} to {{.To}}.",
	"MILESTONE_EXPIRED":                     "The milestone deadline has passed.",
	"MILESTONE_NOT_OVERDUE":                 "The milestone is not overdue.",
	"MILESTONE_ORACLE_ATTESTATION_REQUIRED": "The milestone needs an oracle attestation first.",
	"MILESTONE_NOT_APPROVED":                "The milestone has not been approved by a vote.",
	"MILESTONE_ALREADY_RELEASED":            "The milestone funds were already released.",
	"PROPOSAL_NOT_FOUND":                    "Proposal {{.ProposalID}} was not found.",
	"PROPOSAL_KIND_RESERVED":                "This kind of proposal is opened by the vesting escrow only.",
	"INSUFFICIENT_VOTING_POWER":             "You need at least {{.Required}} voting power to propose.",
	"NO_VOTING_POWER":                       "You have no voting power for this vote.",
	"VOTE_ALREADY_CAST":                     "You have already voted.",
	"VOTING_CLOSED":                         "Voting is closed.",
	"VOTING_STILL_OPEN":                     "Voting is still open.",
	"VOTE_ALREADY_EXECUTED":                 "The vote was already executed.",
	"DAO_INVALID_CONFIG":                    "The governance configuration is invalid{{if .Field}}: {{.Field}}{{end}}.",
	"NOT_FOUND":                             "The requested record was not found.",
})
