package raise

import (
	"strconv"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
)

var (
	ErrUnauthorized        = apperrors.New(apperrors.CodeUnauthorized, "caller is not the raise owner")
	ErrNotConfigured       = apperrors.New(apperrors.CodeRaiseNotConfigured, "raise is not configured")
	ErrAlreadyConfigured   = apperrors.New(apperrors.CodeRaiseAlreadyConfigured, "raise is already configured")
	ErrAlreadyFinalized    = apperrors.New(apperrors.CodeRaiseAlreadyFinalized, "raise is already finalized")
	ErrStillOpen           = apperrors.New(apperrors.CodeRaiseStillOpen, "raise window has not ended")
	ErrNotFinalized        = apperrors.New(apperrors.CodeRaiseNotFinalized, "raise is not finalized")
	ErrNotFailed           = apperrors.New(apperrors.CodeRaiseNotFailed, "raise has not failed")
	ErrOutOfWindow         = apperrors.New(apperrors.CodeOutOfWindow, "raise is not accepting contributions")
	ErrNoContribution      = apperrors.New(apperrors.CodeNoContribution, "no contribution recorded")
	ErrAlreadyClaimed      = apperrors.New(apperrors.CodeAlreadyClaimed, "tokens already claimed")
	ErrAlreadyRefunded     = apperrors.New(apperrors.CodeAlreadyRefunded, "contribution already refunded")
	ErrKYCRequired         = apperrors.New(apperrors.CodeKYCRequired, "contributor is not KYC approved")
	ErrNothingOwed         = apperrors.New(apperrors.CodeNothingOwed, "no liquidity is owed")
	ErrInvalidAmount       = apperrors.New(apperrors.CodeInvalidAmount, "contribution must be positive")
	ErrMissingCollaborator = apperrors.New(apperrors.CodeUnknown, "raise collaborator is not wired")
	ErrVestingFunded       = apperrors.New(apperrors.CodeAlreadyInitialized, "vesting escrow was funded outside the raise")
)

func invalidConfig(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeRaiseInvalidConfig, message, map[string]string{"Field": field})
}

func belowMinimum(min uint64) error {
	return apperrors.WithMetadata(apperrors.CodeBelowMinimum, "contribution below minimum",
		map[string]string{"Min": strconv.FormatUint(min, 10)})
}

func aboveMaximum(max uint64) error {
	return apperrors.WithMetadata(apperrors.CodeAboveMaximum, "contribution above maximum",
		map[string]string{"Max": strconv.FormatUint(max, 10)})
}

// zeroTokens reports a contribution too small to buy one token minor unit.
func zeroTokens(price uint64) error {
	min := price / PriceScale
	if price%PriceScale != 0 {
		min++
	}
	return apperrors.WithMetadata(apperrors.CodeBelowMinimum, "contribution buys no tokens",
		map[string]string{"Min": strconv.FormatUint(min, 10)})
}
