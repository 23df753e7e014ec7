package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openpredict/market-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot reads (markets and user balances). Transactions run
// against the primary; the keys they touch are recorded and invalidated
// only after the commit succeeds, so the cache never sees rolled-back
// state.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{primary: primary, rdb: rdb, ttl: ttl}
}

// --- Read-through ---

func (s *CachedStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(id)).Bytes()
	if err == nil {
		var m model.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, marketKey(id), m)
	return m, nil
}

func (s *CachedStore) GetUser(ctx context.Context, username string) (*model.User, error) {
	data, err := s.rdb.Get(ctx, userKey(username)).Bytes()
	if err == nil {
		var u model.User
		if json.Unmarshal(data, &u) == nil {
			return &u, nil
		}
	}

	u, err := s.primary.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, userKey(username), u)
	return u, nil
}

// --- Write paths (invalidate after commit) ---

func (s *CachedStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.primary.CreateUser(ctx, u); err != nil {
		return err
	}
	s.cacheJSON(ctx, userKey(u.Username), u)
	return nil
}

func (s *CachedStore) CreateMarket(ctx context.Context, m *model.Market) error {
	if err := s.primary.CreateMarket(ctx, m); err != nil {
		return err
	}
	s.cacheJSON(ctx, marketKey(m.ID), m)
	return nil
}

func (s *CachedStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	rec := &recordingTx{}
	err := s.primary.Atomically(ctx, func(tx Tx) error {
		rec.Tx = tx
		return fn(rec)
	})
	if err != nil {
		return err
	}
	if len(rec.touched) > 0 {
		s.rdb.Del(ctx, rec.touched...)
	}
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.primary.ListUsers(ctx)
}

func (s *CachedStore) ListMarkets(ctx context.Context, status model.StatusFilter) ([]model.Market, error) {
	return s.primary.ListMarkets(ctx, status)
}

func (s *CachedStore) GetPosition(ctx context.Context, marketID, username string) (*model.Position, error) {
	return s.primary.GetPosition(ctx, marketID, username)
}

func (s *CachedStore) ListBetsByUser(ctx context.Context, username string) ([]model.BetEntry, error) {
	return s.primary.ListBetsByUser(ctx, username)
}

func (s *CachedStore) ListBets(ctx context.Context, limit int) ([]model.BetEntry, error) {
	return s.primary.ListBets(ctx, limit)
}

// --- Helpers ---

func (s *CachedStore) cacheJSON(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func marketKey(id string) string     { return fmt.Sprintf("market:%s", id) }
func userKey(username string) string { return fmt.Sprintf("user:%s", username) }

// recordingTx forwards every call to the real transaction while noting
// which cache keys the writes dirty.
type recordingTx struct {
	Tx
	touched []string
}

func (r *recordingTx) note(key string) {
	for _, k := range r.touched {
		if k == key {
			return
		}
	}
	r.touched = append(r.touched, key)
}

func (r *recordingTx) AddUserBalance(ctx context.Context, username string, deltaCents int64) error {
	r.note(userKey(username))
	return r.Tx.AddUserBalance(ctx, username, deltaCents)
}

func (r *recordingTx) SetRealPools(ctx context.Context, marketID string, yesRealCents, noRealCents int64) error {
	r.note(marketKey(marketID))
	return r.Tx.SetRealPools(ctx, marketID, yesRealCents, noRealCents)
}

func (r *recordingTx) CloseMarket(ctx context.Context, marketID string) error {
	r.note(marketKey(marketID))
	return r.Tx.CloseMarket(ctx, marketID)
}

func (r *recordingTx) MarkSettled(ctx context.Context, marketID string, winner model.Side) error {
	r.note(marketKey(marketID))
	return r.Tx.MarkSettled(ctx, marketID, winner)
}

func (r *recordingTx) DeleteMarket(ctx context.Context, marketID string) error {
	r.note(marketKey(marketID))
	return r.Tx.DeleteMarket(ctx, marketID)
}
