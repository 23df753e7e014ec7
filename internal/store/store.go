// Package store defines the persistence interface for the market engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/openpredict/market-engine/internal/model"
)

// Store is the persistence interface. Reads may be served from cache;
// every mutating flow runs through Atomically so that the trade executor's
// five mutations, and a settlement's payout fan-out, commit or roll back as
// one unit.
type Store interface {
	// --- Users ---

	// CreateUser persists a new user with its starting balance.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUser retrieves a user by username.
	GetUser(ctx context.Context, username string) (*model.User, error)

	// ListUsers returns all users, richest first.
	ListUsers(ctx context.Context) ([]model.User, error)

	// --- Markets ---

	// CreateMarket persists a new market.
	CreateMarket(ctx context.Context, m *model.Market) error

	// GetMarket retrieves a market by its ID.
	GetMarket(ctx context.Context, id string) (*model.Market, error)

	// ListMarkets returns markets matching the status filter, soonest
	// closing first.
	ListMarkets(ctx context.Context, status model.StatusFilter) ([]model.Market, error)

	// --- Positions & ledger (read paths) ---

	// GetPosition returns the (market, user) position, or nil if the user
	// has never traded the market.
	GetPosition(ctx context.Context, marketID, username string) (*model.Position, error)

	// ListBetsByUser returns a user's ledger entries, newest first.
	ListBetsByUser(ctx context.Context, username string) ([]model.BetEntry, error)

	// ListBets returns up to limit ledger entries across all markets,
	// newest first.
	ListBets(ctx context.Context, limit int) ([]model.BetEntry, error)

	// --- Atomic unit of work ---

	// Atomically runs fn inside one transaction. If fn returns an error the
	// transaction rolls back and the store is left exactly as before; any
	// commit failure surfaces as model.ErrStorage. Rows read through the Tx
	// "ForUpdate" methods are locked until the transaction ends, so two
	// concurrent writers to the same market or user serialize rather than
	// losing an update.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the mutating surface available inside Atomically.
type Tx interface {
	// GetMarketForUpdate reads a market and locks its row for the rest of
	// the transaction.
	GetMarketForUpdate(ctx context.Context, id string) (*model.Market, error)

	// GetUserForUpdate reads a user and locks its row.
	GetUserForUpdate(ctx context.Context, username string) (*model.User, error)

	// AddUserBalance adjusts a user balance by deltaCents (negative to
	// debit). The caller is responsible for the non-negative invariant.
	AddUserBalance(ctx context.Context, username string, deltaCents int64) error

	// SetRealPools writes both real pool columns for a market. Virtual
	// pools have no setter anywhere: they are fixed at creation.
	SetRealPools(ctx context.Context, marketID string, yesRealCents, noRealCents int64) error

	// AddPositionShares upserts the (market, user) position, adding the
	// given share counts (a zero-initialized row is inserted first if none
	// exists).
	AddPositionShares(ctx context.Context, marketID, username string, addYes, addNo float64) error

	// InsertBet appends an immutable ledger entry.
	InsertBet(ctx context.Context, e *model.BetEntry) error

	// UserMarketSpendCents sums a user's ledger spends in one market.
	UserMarketSpendCents(ctx context.Context, marketID, username string) (int64, error)

	// ListPositionsByMarket returns every position for a market.
	ListPositionsByMarket(ctx context.Context, marketID string) ([]model.Position, error)

	// ZeroPositions clears both share columns for every position in a
	// market. Only the settlement engine calls this.
	ZeroPositions(ctx context.Context, marketID string) error

	// CloseMarket transitions open→closed.
	CloseMarket(ctx context.Context, marketID string) error

	// MarkSettled records the winner and flips the terminal settled flag.
	MarkSettled(ctx context.Context, marketID string, winner model.Side) error

	// DeleteMarket hard-deletes a market with its positions and ledger
	// rows. Admin purge only.
	DeleteMarket(ctx context.Context, marketID string) error
}
