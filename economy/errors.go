package economy

import "errors"

// Operation errors. All checks run before any effect and every effect commits
// atomically, so callers can treat each of these as "nothing happened".
var (
	// ErrNotFound reports an unknown user, banner, offer or inventory entry.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientCurrency reports a balance too low for the operation.
	ErrInsufficientCurrency = errors.New("insufficient currency")

	// ErrStockExhausted reports a purchase that would exceed a stock limit.
	ErrStockExhausted = errors.New("stock exhausted")

	// ErrForbidden reports an inventory entry owned by a different user.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateRequest reports a replayed idempotency key.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrTxConflict reports that serialization retries were exhausted.
	ErrTxConflict = errors.New("transaction conflict, please retry")
)
