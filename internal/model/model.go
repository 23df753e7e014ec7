// Package model defines the core domain types shared across the market engine.
// All monetary values are integer cents — never float64 for money. Share
// counts are real-valued points (1.0 share pays 100 cents if its side wins).
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side identifies one of the two outcomes of a binary market.
// It is a closed two-variant enumeration; anything else is rejected at the
// boundary by ParseSide.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// ParseSide validates a raw side tag.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideYes, SideNo:
		return Side(s), nil
	default:
		return "", fmt.Errorf("%w: side must be YES or NO, got %q", ErrInvalidAmount, s)
	}
}

// Valid reports whether the side is one of the two allowed variants.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// UnmarshalJSON enforces the two-variant invariant on decode.
func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User holds a point balance, stored as cents.
// BalanceCents never goes negative: debits are guarded inside the trade
// transaction.
type User struct {
	Username     string    `json:"username" db:"username"`
	BalanceCents int64     `json:"balance_cents" db:"balance_cents"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Market is one binary prediction market priced by the constant-product
// market maker. Real pools accumulate traded cents per side; virtual pools
// are fixed synthetic depth set at creation and never mutated by trading.
//
// Lifecycle: open+unsettled → closed (Open=false) → settled (terminal).
// Open implies not settled; once Settled, Winner is fixed and the pools are
// never written again.
type Market struct {
	ID           string    `json:"id" db:"id"`
	Question     string    `json:"question" db:"question"`
	ClosesAt     time.Time `json:"closes_at" db:"closes_at"`
	Open         bool      `json:"open" db:"open"`
	Settled      bool      `json:"settled" db:"settled"`
	Winner       Side      `json:"winner,omitempty" db:"winner"` // empty until settled
	YesRealCents int64     `json:"yes_real_cents" db:"yes_real_cents"`
	NoRealCents  int64     `json:"no_real_cents" db:"no_real_cents"`
	VirtYesCents int64     `json:"virt_yes_cents" db:"virt_yes_cents"`
	VirtNoCents  int64     `json:"virt_no_cents" db:"virt_no_cents"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Position is a trader's share holdings in one market, keyed by
// (market, username). Shares are points of payout claim, fractional.
type Position struct {
	MarketID  string    `json:"market_id" db:"market_id"`
	Username  string    `json:"username" db:"username"`
	YesShares float64   `json:"yes_shares_points" db:"yes_shares_points"`
	NoShares  float64   `json:"no_shares_points" db:"no_shares_points"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SharesFor returns the share count held on the given side.
func (p *Position) SharesFor(side Side) float64 {
	if side == SideYes {
		return p.YesShares
	}
	return p.NoShares
}

// BetEntry is an immutable audit record of one executed bet.
// Entries are append-only; nothing reads them for correctness, only for
// history, and only the admin purge deletes them.
type BetEntry struct {
	ID          string    `json:"id" db:"id"`
	MarketID    string    `json:"market_id" db:"market_id"`
	Username    string    `json:"username" db:"username"`
	Side        Side      `json:"side" db:"side"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StatusFilter narrows market listings.
type StatusFilter string

const (
	StatusAny     StatusFilter = ""
	StatusOpen    StatusFilter = "open"    // open and unsettled
	StatusClosed  StatusFilter = "closed"  // closed but unsettled
	StatusSettled StatusFilter = "settled" // terminal
)
