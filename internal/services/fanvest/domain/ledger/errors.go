package ledger

import apperrors "github.com/louisbranch/fanvest/internal/platform/errors"

var (
	// ErrNotMinter indicates the caller is not on the minter allow-list.
	ErrNotMinter = apperrors.New(apperrors.CodeUnauthorized, "caller is not an authorized minter")
	// ErrNotBurner indicates the caller is not on the burner allow-list.
	ErrNotBurner = apperrors.New(apperrors.CodeUnauthorized, "caller is not an authorized burner")
	// ErrNotOperator indicates the caller may not move funds from the source account.
	ErrNotOperator = apperrors.New(apperrors.CodeUnauthorized, "caller may not transfer from this account")
	// ErrNotOwner indicates an administrative call from someone other than the owner.
	ErrNotOwner = apperrors.New(apperrors.CodeUnauthorized, "caller is not the ledger owner")
	// ErrInsufficientBalance indicates a burn or transfer above the account balance.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeInsufficientBalance, "insufficient balance")
	// ErrAccountRequired indicates a missing account identity.
	ErrAccountRequired = apperrors.New(apperrors.CodeInvalidInput, "account is required")
)
