// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Shared validation errors
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodeInvalidAmount  Code = "INVALID_AMOUNT"
	CodeAmountOverflow Code = "AMOUNT_OVERFLOW"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeKYCRequired  Code = "KYC_REQUIRED"

	// Ledger errors
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Raise errors
	CodeOutOfWindow               Code = "RAISE_OUT_OF_WINDOW"
	CodeBelowMinimum              Code = "RAISE_BELOW_MINIMUM"
	CodeAboveMaximum              Code = "RAISE_ABOVE_MAXIMUM"
	CodeRaiseInvalidConfig        Code = "RAISE_INVALID_CONFIG"
	CodeRaiseNotConfigured        Code = "RAISE_NOT_CONFIGURED"
	CodeRaiseAlreadyConfigured    Code = "RAISE_ALREADY_CONFIGURED"
	CodeRaiseAlreadyFinalized     Code = "RAISE_ALREADY_FINALIZED"
	CodeRaiseStillOpen            Code = "RAISE_STILL_OPEN"
	CodeRaiseNotFinalized         Code = "RAISE_NOT_FINALIZED"
	CodeRaiseNotFailed            Code = "RAISE_NOT_FAILED"
	CodeNoContribution            Code = "RAISE_NO_CONTRIBUTION"
	CodeAlreadyClaimed            Code = "RAISE_ALREADY_CLAIMED"
	CodeAlreadyRefunded           Code = "RAISE_ALREADY_REFUNDED"
	CodeNothingOwed               Code = "RAISE_NOTHING_OWED"
	CodeLiquidityVenueUnavailable Code = "LIQUIDITY_VENUE_UNAVAILABLE"

	// Vesting errors
	CodeVestingNotInitialized      Code = "VESTING_NOT_INITIALIZED"
	CodeAlreadyInitialized         Code = "VESTING_ALREADY_INITIALIZED"
	CodeExceedsReserve             Code = "VESTING_EXCEEDS_RESERVE"
	CodeDeadlineInPast             Code = "MILESTONE_DEADLINE_IN_PAST"
	CodeInvalidDeadline            Code = "MILESTONE_INVALID_DEADLINE"
	CodeMilestoneNotFound          Code = "MILESTONE_NOT_FOUND"
	CodeMilestoneInvalidTransition Code = "MILESTONE_INVALID_TRANSITION"
	CodeMilestoneExpired           Code = "MILESTONE_EXPIRED"
	CodeMilestoneNotOverdue        Code = "MILESTONE_NOT_OVERDUE"
	CodeOracleAttestationRequired  Code = "MILESTONE_ORACLE_ATTESTATION_REQUIRED"
	CodeNotApproved                Code = "MILESTONE_NOT_APPROVED"
	CodeAlreadyReleased            Code = "MILESTONE_ALREADY_RELEASED"

	// Governance errors
	CodeProposalNotFound        Code = "PROPOSAL_NOT_FOUND"
	CodeProposalKindReserved    Code = "PROPOSAL_KIND_RESERVED"
	CodeInsufficientVotingPower Code = "INSUFFICIENT_VOTING_POWER"
	CodeNoVotingPower           Code = "NO_VOTING_POWER"
	CodeAlreadyVoted            Code = "VOTE_ALREADY_CAST"
	CodeVotingClosed            Code = "VOTING_CLOSED"
	CodeVotingStillOpen         Code = "VOTING_STILL_OPEN"
	CodeAlreadyExecuted         Code = "VOTE_ALREADY_EXECUTED"
	CodeInvalidDAOConfig        Code = "DAO_INVALID_CONFIG"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// Category groups codes by the kind of failure a client observes.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryState         Category = "state"
	CategoryAuthorization Category = "authorization"
	CategoryDependency    Category = "dependency"
	CategoryInternal      Category = "internal"
)

// Retry tells a client whether repeating the same call can ever succeed.
type Retry string

const (
	// RetryLater means the same call may succeed once time passes.
	RetryLater Retry = "retry_later"
	// RetryChangeCaller means the call needs a different principal.
	RetryChangeCaller Retry = "change_caller"
	// RetryNever means the call will not succeed as issued.
	RetryNever Retry = "never"
)

// Category reports the failure category for the code.
func (c Code) Category() Category {
	switch c {
	case CodeInvalidInput,
		CodeInvalidAmount,
		CodeAmountOverflow,
		CodeBelowMinimum,
		CodeAboveMaximum,
		CodeRaiseInvalidConfig,
		CodeExceedsReserve,
		CodeDeadlineInPast,
		CodeInvalidDeadline,
		CodeInvalidDAOConfig:
		return CategoryValidation
	case CodeUnauthorized,
		CodeKYCRequired,
		CodeInsufficientVotingPower,
		CodeNoVotingPower:
		return CategoryAuthorization
	case CodeLiquidityVenueUnavailable:
		return CategoryDependency
	case CodeUnknown:
		return CategoryInternal
	default:
		if c.GRPCCode() == codes.Internal {
			return CategoryInternal
		}
		return CategoryState
	}
}

// Retry reports whether and how a client may retry after this code.
func (c Code) Retry() Retry {
	switch c {
	case CodeOutOfWindow,
		CodeRaiseStillOpen,
		CodeVotingStillOpen,
		CodeLiquidityVenueUnavailable:
		return RetryLater
	}
	if c.Category() == CategoryAuthorization {
		return RetryChangeCaller
	}
	return RetryNever
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidInput,
		CodeInvalidAmount,
		CodeAmountOverflow,
		CodeBelowMinimum,
		CodeAboveMaximum,
		CodeRaiseInvalidConfig,
		CodeExceedsReserve,
		CodeDeadlineInPast,
		CodeInvalidDeadline,
		CodeInvalidDAOConfig:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeOutOfWindow,
		CodeRaiseNotConfigured,
		CodeRaiseAlreadyFinalized,
		CodeRaiseStillOpen,
		CodeRaiseNotFinalized,
		CodeRaiseNotFailed,
		CodeNothingOwed,
		CodeInsufficientBalance,
		CodeVestingNotInitialized,
		CodeMilestoneInvalidTransition,
		CodeMilestoneExpired,
		CodeMilestoneNotOverdue,
		CodeOracleAttestationRequired,
		CodeNotApproved,
		CodeProposalKindReserved,
		CodeVotingClosed,
		CodeVotingStillOpen:
		return codes.FailedPrecondition

	// AlreadyExists - operation already happened
	case CodeRaiseAlreadyConfigured,
		CodeAlreadyClaimed,
		CodeAlreadyRefunded,
		CodeAlreadyInitialized,
		CodeAlreadyReleased,
		CodeAlreadyVoted,
		CodeAlreadyExecuted:
		return codes.AlreadyExists

	// PermissionDenied - caller lacks the role or power
	case CodeUnauthorized,
		CodeKYCRequired,
		CodeInsufficientVotingPower,
		CodeNoVotingPower:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeNoContribution,
		CodeMilestoneNotFound,
		CodeProposalNotFound:
		return codes.NotFound

	// Unavailable - external dependency failed
	case CodeLiquidityVenueUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
