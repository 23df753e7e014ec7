package model

import "errors"

// Domain error kinds. Every failure surfaced by the trade executor or the
// settlement engine wraps one of these, so callers can classify with
// errors.Is. All of them leave the store exactly as it was before the call;
// only ErrStorage should be treated as potentially transient.
var (
	// ErrInvalidAmount is returned for a non-positive or malformed spend.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned for an unknown market or user.
	ErrNotFound = errors.New("not found")

	// ErrMarketClosed is returned when trading on a market with open=false.
	ErrMarketClosed = errors.New("market is closed")

	// ErrInvalidState is returned when a close or settle transition is
	// attempted from a state that does not allow it.
	ErrInvalidState = errors.New("invalid market state")

	// ErrInsufficientBalance is returned when a user cannot cover a spend.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStorage is returned when a transaction could not commit.
	ErrStorage = errors.New("storage failure")
)
