package vault

import "errors"

// Error taxonomy. All errors are non-retryable by the vault itself: the
// caller must correct inputs or conditions and reissue the operation.
// A failed operation never leaves a partial state change behind.
var (
	// ErrNotAuthorized is returned when a caller other than the current
	// owner invokes an admin-gated operation.
	ErrNotAuthorized = errors.New("caller is not the owner")

	// ErrAlreadyInitialized is returned when Initialize runs twice.
	ErrAlreadyInitialized = errors.New("owner already initialized")

	// ErrInvalidIdentity is returned when the null identity is proposed
	// as owner.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrReentrantCall is returned when a guarded operation is entered
	// while the reentrancy flag is busy.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrDepositsDisabled is returned on the deposit path while the
	// deposit gate is off. Withdrawals are never gated by this flag.
	ErrDepositsDisabled = errors.New("deposits disabled")

	// ErrZeroAmount is returned for zero-amount deposits and withdrawals.
	ErrZeroAmount = errors.New("zero amount")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// caller's tracked balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferFailed is returned when the outbound value transfer
	// reports failure. The balance debit is restored before returning.
	ErrTransferFailed = errors.New("transfer failed")
)
