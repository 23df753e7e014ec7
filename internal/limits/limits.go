// Package limits implements spend limits for the trade executor.
//
// Virtual liquidity keeps prices defined but cannot stop one account from
// buying a market's whole payout budget; this package caps what a single
// bet, and a user's cumulative spend in one market, may reach.
package limits

import "errors"

var (
	// ErrBetTooLarge is returned when one bet exceeds the per-bet cap.
	ErrBetTooLarge = errors.New("limits: bet exceeds per-bet maximum")

	// ErrMarketExposureExceeded is returned when a bet would push the
	// user's cumulative spend in one market beyond the per-market cap.
	ErrMarketExposureExceeded = errors.New("limits: per-market exposure limit exceeded")
)

// SpendLimiter enforces spend caps in cents. A cap of zero disables that
// check.
type SpendLimiter struct {
	// MaxPerBetCents is the largest single spend allowed.
	MaxPerBetCents int64

	// MaxPerMarketCents is the largest cumulative spend one user may place
	// into one market across all their bets.
	MaxPerMarketCents int64
}

// NewSpendLimiter creates a limiter with the given per-bet and per-market
// caps, both in cents.
func NewSpendLimiter(maxPerBetCents, maxPerMarketCents int64) *SpendLimiter {
	return &SpendLimiter{
		MaxPerBetCents:    maxPerBetCents,
		MaxPerMarketCents: maxPerMarketCents,
	}
}

// Check validates a spend against the caps given the user's prior spend in
// the same market. Returns nil if the bet is within limits.
func (l *SpendLimiter) Check(spendCents, priorMarketSpendCents int64) error {
	if l == nil {
		return nil
	}
	if l.MaxPerBetCents > 0 && spendCents > l.MaxPerBetCents {
		return ErrBetTooLarge
	}
	if l.MaxPerMarketCents > 0 && priorMarketSpendCents+spendCents > l.MaxPerMarketCents {
		return ErrMarketExposureExceeded
	}
	return nil
}
