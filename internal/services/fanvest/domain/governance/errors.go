package governance

import (
	"strconv"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

var (
	ErrUnauthorized        = apperrors.New(apperrors.CodeUnauthorized, "caller may not perform this governance operation")
	ErrKindReserved        = apperrors.New(apperrors.CodeProposalKindReserved, "milestone proposals are opened by the escrow")
	ErrNoVotingPower       = apperrors.New(apperrors.CodeNoVotingPower, "caller has no voting power")
	ErrAlreadyVoted        = apperrors.New(apperrors.CodeAlreadyVoted, "caller already voted")
	ErrVotingClosed        = apperrors.New(apperrors.CodeVotingClosed, "voting is closed")
	ErrVotingStillOpen     = apperrors.New(apperrors.CodeVotingStillOpen, "voting is still open")
	ErrAlreadyExecuted     = apperrors.New(apperrors.CodeAlreadyExecuted, "vote already executed")
	ErrMissingCollaborator = apperrors.New(apperrors.CodeUnknown, "governance collaborator is not wired")
)

func invalidInput(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}

func invalidConfig(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidDAOConfig, message, map[string]string{"Field": field})
}

func proposalNotFound(id uint64) error {
	return apperrors.WithMetadata(apperrors.CodeProposalNotFound, "proposal not found",
		map[string]string{"ProposalID": strconv.FormatUint(id, 10)})
}

func insufficientPower(required uint64) error {
	return apperrors.WithMetadata(apperrors.CodeInsufficientVotingPower, "voting power below proposal minimum",
		map[string]string{"Required": strconv.FormatUint(required, 10)})
}
