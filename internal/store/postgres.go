package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openpredict/market-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Monetary columns are BIGINT cents; only share counts are DOUBLE PRECISION.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// schema mirrors the logical layout: Users, Markets, Positions, Bets.
const schema = `
CREATE TABLE IF NOT EXISTS users (
  username       TEXT PRIMARY KEY,
  balance_cents  BIGINT NOT NULL CHECK (balance_cents >= 0),
  created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS markets (
  id              TEXT PRIMARY KEY,
  question        TEXT NOT NULL,
  closes_at       TIMESTAMPTZ NOT NULL,
  open            BOOLEAN NOT NULL DEFAULT TRUE,
  settled         BOOLEAN NOT NULL DEFAULT FALSE,
  winner          TEXT CHECK (winner IN ('YES','NO')),
  yes_real_cents  BIGINT NOT NULL DEFAULT 0 CHECK (yes_real_cents >= 0),
  no_real_cents   BIGINT NOT NULL DEFAULT 0 CHECK (no_real_cents >= 0),
  virt_yes_cents  BIGINT NOT NULL CHECK (virt_yes_cents >= 0),
  virt_no_cents   BIGINT NOT NULL CHECK (virt_no_cents >= 0),
  created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
  market_id          TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
  username           TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
  yes_shares_points  DOUBLE PRECISION NOT NULL DEFAULT 0,
  no_shares_points   DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at         TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (market_id, username)
);

CREATE TABLE IF NOT EXISTS bets (
  id            TEXT PRIMARY KEY,
  market_id     TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
  username      TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
  side          TEXT NOT NULL CHECK (side IN ('YES','NO')),
  amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
  created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_market ON bets (market_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bets_user   ON bets (username, created_at);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, balance_cents, created_at) VALUES ($1, $2, $3)`,
		u.Username, u.BalanceCents, u.CreatedAt)
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT username, balance_cents, created_at FROM users WHERE username = $1`,
		username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return u, err
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, balance_cents, created_at
		 FROM users ORDER BY balance_cents DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Username, &u.BalanceCents, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Markets ---

func (s *PostgresStore) CreateMarket(ctx context.Context, m *model.Market) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO markets (id, question, closes_at, open, settled, winner,
		                      yes_real_cents, no_real_cents, virt_yes_cents, virt_no_cents, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULL, $6, $7, $8, $9, $10)`,
		m.ID, m.Question, m.ClosesAt, m.Open, m.Settled,
		m.YesRealCents, m.NoRealCents, m.VirtYesCents, m.VirtNoCents, m.CreatedAt)
	return err
}

const marketColumns = `id, question, closes_at, open, settled, winner,
       yes_real_cents, no_real_cents, virt_yes_cents, virt_no_cents, created_at`

func (s *PostgresStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	m, err := scanMarket(s.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}
	return m, nil
}

func (s *PostgresStore) ListMarkets(ctx context.Context, status model.StatusFilter) ([]model.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets`
	switch status {
	case model.StatusOpen:
		query += ` WHERE open AND NOT settled`
	case model.StatusClosed:
		query += ` WHERE NOT open AND NOT settled`
	case model.StatusSettled:
		query += ` WHERE settled`
	}
	query += ` ORDER BY closes_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}
	return markets, rows.Err()
}

// --- Positions & ledger ---

func (s *PostgresStore) GetPosition(ctx context.Context, marketID, username string) (*model.Position, error) {
	var p model.Position
	err := s.pool.QueryRow(ctx,
		`SELECT market_id, username, yes_shares_points, no_shares_points, created_at
		 FROM positions WHERE market_id = $1 AND username = $2`,
		marketID, username).
		Scan(&p.MarketID, &p.Username, &p.YesShares, &p.NoShares, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListBetsByUser(ctx context.Context, username string) ([]model.BetEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, username, side, amount_cents, created_at
		 FROM bets WHERE username = $1 ORDER BY created_at DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

func (s *PostgresStore) ListBets(ctx context.Context, limit int) ([]model.BetEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, username, side, amount_cents, created_at
		 FROM bets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

// --- Atomic unit of work ---

func (s *PostgresStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrStorage, err)
	}
	defer pgtx.Rollback(ctx) // no-op after commit

	if err := fn(&postgresTx{tx: pgtx}); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrStorage, err)
	}
	return nil
}

// postgresTx implements Tx on top of a pgx transaction. Row locks taken by
// the ForUpdate reads hold until commit/rollback, serializing concurrent
// writers to the same market or user.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) GetMarketForUpdate(ctx context.Context, id string) (*model.Market, error) {
	m, err := scanMarket(t.tx.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return m, err
}

func (t *postgresTx) GetUserForUpdate(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(t.tx.QueryRow(ctx,
		`SELECT username, balance_cents, created_at FROM users WHERE username = $1 FOR UPDATE`,
		username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return u, err
}

func (t *postgresTx) AddUserBalance(ctx context.Context, username string, deltaCents int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE users SET balance_cents = balance_cents + $2 WHERE username = $1`,
		username, deltaCents)
	return err
}

func (t *postgresTx) SetRealPools(ctx context.Context, marketID string, yesRealCents, noRealCents int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE markets SET yes_real_cents = $2, no_real_cents = $3 WHERE id = $1`,
		marketID, yesRealCents, noRealCents)
	return err
}

func (t *postgresTx) AddPositionShares(ctx context.Context, marketID, username string, addYes, addNo float64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO positions (market_id, username, yes_shares_points, no_shares_points, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (market_id, username) DO UPDATE
		 SET yes_shares_points = positions.yes_shares_points + EXCLUDED.yes_shares_points,
		     no_shares_points  = positions.no_shares_points  + EXCLUDED.no_shares_points`,
		marketID, username, addYes, addNo)
	return err
}

func (t *postgresTx) InsertBet(ctx context.Context, e *model.BetEntry) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO bets (id, market_id, username, side, amount_cents, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.MarketID, e.Username, string(e.Side), e.AmountCents, e.CreatedAt)
	return err
}

func (t *postgresTx) UserMarketSpendCents(ctx context.Context, marketID, username string) (int64, error) {
	var total int64
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM bets WHERE market_id = $1 AND username = $2`,
		marketID, username).Scan(&total)
	return total, err
}

func (t *postgresTx) ListPositionsByMarket(ctx context.Context, marketID string) ([]model.Position, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT market_id, username, yes_shares_points, no_shares_points, created_at
		 FROM positions WHERE market_id = $1 ORDER BY username`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.MarketID, &p.Username, &p.YesShares, &p.NoShares, &p.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (t *postgresTx) ZeroPositions(ctx context.Context, marketID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE positions SET yes_shares_points = 0, no_shares_points = 0 WHERE market_id = $1`,
		marketID)
	return err
}

func (t *postgresTx) CloseMarket(ctx context.Context, marketID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE markets SET open = FALSE WHERE id = $1`, marketID)
	return err
}

func (t *postgresTx) MarkSettled(ctx context.Context, marketID string, winner model.Side) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE markets SET settled = TRUE, winner = $2 WHERE id = $1`,
		marketID, string(winner))
	return err
}

func (t *postgresTx) DeleteMarket(ctx context.Context, marketID string) error {
	// Positions and bets cascade from the FK.
	_, err := t.tx.Exec(ctx, `DELETE FROM markets WHERE id = $1`, marketID)
	return err
}

// --- Scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.Username, &u.BalanceCents, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanMarket(row rowScanner) (*model.Market, error) {
	var m model.Market
	var winner *string
	if err := row.Scan(&m.ID, &m.Question, &m.ClosesAt, &m.Open, &m.Settled, &winner,
		&m.YesRealCents, &m.NoRealCents, &m.VirtYesCents, &m.VirtNoCents, &m.CreatedAt); err != nil {
		return nil, err
	}
	if winner != nil {
		m.Winner = model.Side(*winner)
	}
	return &m, nil
}

func scanBets(rows pgx.Rows) ([]model.BetEntry, error) {
	var entries []model.BetEntry
	for rows.Next() {
		var e model.BetEntry
		var side string
		if err := rows.Scan(&e.ID, &e.MarketID, &e.Username, &side, &e.AmountCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Side = model.Side(side)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
