package vesting

import (
	"strconv"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

var (
	ErrUnauthorized        = apperrors.New(apperrors.CodeUnauthorized, "caller may not perform this vesting operation")
	ErrNotInitialized      = apperrors.New(apperrors.CodeVestingNotInitialized, "vesting account is not initialized")
	ErrAlreadyInitialized  = apperrors.New(apperrors.CodeAlreadyInitialized, "vesting account is already initialized")
	ErrExceedsReserve      = apperrors.New(apperrors.CodeExceedsReserve, "milestone exceeds the vesting reserve")
	ErrDeadlineInPast      = apperrors.New(apperrors.CodeDeadlineInPast, "deadline must be in the future")
	ErrInvalidDeadline     = apperrors.New(apperrors.CodeInvalidDeadline, "deadline must move later")
	ErrExpired             = apperrors.New(apperrors.CodeMilestoneExpired, "milestone deadline has passed")
	ErrNotOverdue          = apperrors.New(apperrors.CodeMilestoneNotOverdue, "milestone is not overdue")
	ErrAttestationRequired = apperrors.New(apperrors.CodeOracleAttestationRequired, "milestone requires an oracle attestation")
	ErrNotApproved         = apperrors.New(apperrors.CodeNotApproved, "milestone vote has not approved a release")
	ErrAlreadyReleased     = apperrors.New(apperrors.CodeAlreadyReleased, "milestone already released")
	ErrInvalidAmount       = apperrors.New(apperrors.CodeInvalidAmount, "amount must be positive")
	ErrMissingCollaborator = apperrors.New(apperrors.CodeUnknown, "vesting collaborator is not wired")
)

func invalidInput(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}

func milestoneNotFound(id uint64) error {
	return apperrors.WithMetadata(apperrors.CodeMilestoneNotFound, "milestone not found",
		map[string]string{"MilestoneID": strconv.FormatUint(id, 10)})
}

func invalidTransition(from, to Status) error {
	return apperrors.WithMetadata(apperrors.CodeMilestoneInvalidTransition, "invalid milestone transition",
		map[string]string{"From": string(from), "To": string(to)})
}
