package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openpredict/market-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Atomically runs against a snapshot that is swapped in only
// on success, so rollback semantics match the SQL store.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

type posKey struct {
	marketID string
	username string
}

type memState struct {
	users     map[string]model.User
	markets   map[string]model.Market
	positions map[posKey]model.Position
	bets      []model.BetEntry
}

func newMemState() *memState {
	return &memState{
		users:     make(map[string]model.User),
		markets:   make(map[string]model.Market),
		positions: make(map[posKey]model.Position),
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.markets {
		c.markets[k] = v
	}
	for k, v := range st.positions {
		c.positions[k] = v
	}
	c.bets = append(c.bets, st.bets...)
	return c
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

// --- Users ---

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.users[u.Username]; ok {
		return fmt.Errorf("user %s already exists", u.Username)
	}
	s.state.users[u.Username] = *u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.users[username]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].BalanceCents != users[j].BalanceCents {
			return users[i].BalanceCents > users[j].BalanceCents
		}
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// --- Markets ---

func (s *MemoryStore) CreateMarket(_ context.Context, m *model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.markets[m.ID]; ok {
		return fmt.Errorf("market %s already exists", m.ID)
	}
	s.state.markets[m.ID] = *m
	return nil
}

func (s *MemoryStore) GetMarket(_ context.Context, id string) (*model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.state.markets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) ListMarkets(_ context.Context, status model.StatusFilter) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]model.Market, 0, len(s.state.markets))
	for _, m := range s.state.markets {
		switch status {
		case model.StatusOpen:
			if !m.Open || m.Settled {
				continue
			}
		case model.StatusClosed:
			if m.Open || m.Settled {
				continue
			}
		case model.StatusSettled:
			if !m.Settled {
				continue
			}
		}
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].ClosesAt.Before(markets[j].ClosesAt)
	})
	return markets, nil
}

// --- Positions & ledger ---

func (s *MemoryStore) GetPosition(_ context.Context, marketID, username string) (*model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.positions[posKey{marketID, username}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) ListBetsByUser(_ context.Context, username string) ([]model.BetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.BetEntry
	for i := len(s.state.bets) - 1; i >= 0; i-- {
		if s.state.bets[i].Username == username {
			result = append(result, s.state.bets[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) ListBets(_ context.Context, limit int) ([]model.BetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.BetEntry
	for i := len(s.state.bets) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.state.bets[i])
	}
	return result, nil
}

// --- Atomic unit of work ---

// Atomically clones the whole state, runs fn against the clone, and swaps
// the clone in only if fn succeeds. The single write lock both serializes
// concurrent transactions and gives each one a stable read view.
func (s *MemoryStore) Atomically(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&memTx{state: staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type memTx struct {
	state *memState
}

func (t *memTx) GetMarketForUpdate(_ context.Context, id string) (*model.Market, error) {
	m, ok := t.state.markets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (t *memTx) GetUserForUpdate(_ context.Context, username string) (*model.User, error) {
	u, ok := t.state.users[username]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) AddUserBalance(_ context.Context, username string, deltaCents int64) error {
	u, ok := t.state.users[username]
	if !ok {
		return model.ErrNotFound
	}
	u.BalanceCents += deltaCents
	t.state.users[username] = u
	return nil
}

func (t *memTx) SetRealPools(_ context.Context, marketID string, yesRealCents, noRealCents int64) error {
	m, ok := t.state.markets[marketID]
	if !ok {
		return model.ErrNotFound
	}
	m.YesRealCents = yesRealCents
	m.NoRealCents = noRealCents
	t.state.markets[marketID] = m
	return nil
}

func (t *memTx) AddPositionShares(_ context.Context, marketID, username string, addYes, addNo float64) error {
	key := posKey{marketID, username}
	p, ok := t.state.positions[key]
	if !ok {
		p = model.Position{MarketID: marketID, Username: username}
	}
	p.YesShares += addYes
	p.NoShares += addNo
	t.state.positions[key] = p
	return nil
}

func (t *memTx) InsertBet(_ context.Context, e *model.BetEntry) error {
	t.state.bets = append(t.state.bets, *e)
	return nil
}

func (t *memTx) UserMarketSpendCents(_ context.Context, marketID, username string) (int64, error) {
	var total int64
	for _, b := range t.state.bets {
		if b.MarketID == marketID && b.Username == username {
			total += b.AmountCents
		}
	}
	return total, nil
}

func (t *memTx) ListPositionsByMarket(_ context.Context, marketID string) ([]model.Position, error) {
	var positions []model.Position
	for key, p := range t.state.positions {
		if key.marketID == marketID {
			positions = append(positions, p)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Username < positions[j].Username
	})
	return positions, nil
}

func (t *memTx) ZeroPositions(_ context.Context, marketID string) error {
	for key, p := range t.state.positions {
		if key.marketID == marketID {
			p.YesShares = 0
			p.NoShares = 0
			t.state.positions[key] = p
		}
	}
	return nil
}

func (t *memTx) CloseMarket(_ context.Context, marketID string) error {
	m, ok := t.state.markets[marketID]
	if !ok {
		return model.ErrNotFound
	}
	m.Open = false
	t.state.markets[marketID] = m
	return nil
}

func (t *memTx) MarkSettled(_ context.Context, marketID string, winner model.Side) error {
	m, ok := t.state.markets[marketID]
	if !ok {
		return model.ErrNotFound
	}
	m.Settled = true
	m.Winner = winner
	t.state.markets[marketID] = m
	return nil
}

func (t *memTx) DeleteMarket(_ context.Context, marketID string) error {
	delete(t.state.markets, marketID)
	for key := range t.state.positions {
		if key.marketID == marketID {
			delete(t.state.positions, key)
		}
	}
	kept := t.state.bets[:0]
	for _, b := range t.state.bets {
		if b.MarketID != marketID {
			kept = append(kept, b)
		}
	}
	t.state.bets = kept
	return nil
}
