// Package trade provides the trade executor: it validates market and user
// state, prices a buy through the CPMM, and applies the resulting balance,
// pool, position, and ledger mutations as one atomic transaction. The HTTP
// handlers for markets, bets, previews, and users live here too.
//
// Point amounts cross the HTTP boundary as shopspring/decimal — never
// float64 for money. Internally everything monetary is integer cents.
package trade

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/cpmm"
	"github.com/openpredict/market-engine/internal/limits"
	"github.com/openpredict/market-engine/internal/metrics"
	"github.com/openpredict/market-engine/internal/model"
	"github.com/openpredict/market-engine/internal/store"
)

// PriceScale is the number of decimal places for prices, odds, and share
// counts in responses.
const PriceScale int32 = 8

// DefaultStartingBalanceCents is granted to newly created users when the
// request does not say otherwise (1000 points).
const DefaultStartingBalanceCents int64 = 100_000

// Service executes trades against the persistent store. The mutex
// serializes bet execution in-process (single instance); the store's row
// locks make two instances safe as well.
type Service struct {
	store   store.Store
	limiter *limits.SpendLimiter
	mu      sync.Mutex
	wsHub   *WSHub // optional hub for real-time broadcasts
}

// NewService creates a new trade service.
// Pass nil for limiter to disable spend limits and nil for hub if
// WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *limits.SpendLimiter, hub *WSHub) *Service {
	return &Service{store: st, limiter: limiter, wsHub: hub}
}

// --- Request/Response types ---

// CreateMarketRequest is the JSON body for market creation. Seeds are the
// fixed virtual pools, in points. Alternatively a prior YES probability
// plus a total depth derives the seeds.
type CreateMarketRequest struct {
	Question      string          `json:"question"`
	ClosesAt      time.Time       `json:"closes_at"`
	SeedYesPoints decimal.Decimal `json:"seed_yes_points"`
	SeedNoPoints  decimal.Decimal `json:"seed_no_points"`
	PriorYes      decimal.Decimal `json:"prior_yes,omitempty"`
	DepthPoints   decimal.Decimal `json:"depth_points,omitempty"`
}

// BetRequest is the JSON body for POST /markets/{marketID}/bet and
// /preview. SpendPoints is the amount to spend from balance, in points,
// with at most two fractional digits.
type BetRequest struct {
	Username    string          `json:"username"`
	Side        model.Side      `json:"side"`
	SpendPoints decimal.Decimal `json:"spend_points"`
}

// OddsOut is the YES/NO display pair in responses.
type OddsOut struct {
	Yes decimal.Decimal `json:"yes"`
	No  decimal.Decimal `json:"no"`
}

// BetResponse is returned from a successful bet.
type BetResponse struct {
	OK                    bool            `json:"ok"`
	NewBalancePoints      decimal.Decimal `json:"new_balance_points"`
	SharesPointsIssued    decimal.Decimal `json:"shares_points_issued"`
	PriceYesAfter         decimal.Decimal `json:"price_yes_after"`
	Odds                  OddsOut         `json:"odds"`
	ImpliedPayoutPer1Spot OddsOut         `json:"implied_payout_per1_spot"`
}

// PreviewResponse mirrors BetResponse without a balance change.
type PreviewResponse struct {
	SharesPointsIssued    decimal.Decimal `json:"shares_points_issued"`
	PriceYesAfter         decimal.Decimal `json:"price_yes_after"`
	Odds                  OddsOut         `json:"odds"`
	ImpliedPayoutPer1Spot OddsOut         `json:"implied_payout_per1_spot"`
}

// MarketOut is the market shape returned by listings and reads: real pools
// for transparency, pricing derived from the effective pools.
type MarketOut struct {
	ID                    string          `json:"id"`
	Question              string          `json:"question"`
	ClosesAt              time.Time       `json:"closes_at"`
	Open                  bool            `json:"open"`
	Settled               bool            `json:"settled"`
	Winner                model.Side      `json:"winner,omitempty"`
	YesPoolPoints         decimal.Decimal `json:"yes_pool_points"`
	NoPoolPoints          decimal.Decimal `json:"no_pool_points"`
	Odds                  OddsOut         `json:"odds"`
	PriceYes              decimal.Decimal `json:"price_yes"`
	ImpliedPayoutPer1Spot OddsOut         `json:"implied_payout_per1_spot"`
}

// UserOut is the user shape with the balance in points.
type UserOut struct {
	Username      string          `json:"username"`
	BalancePoints decimal.Decimal `json:"balance_points"`
}

// CreateUserRequest seeds a new user with a starting balance in points.
type CreateUserRequest struct {
	Username       string          `json:"username"`
	StartingPoints decimal.Decimal `json:"starting_points"`
}

// BetResult is the outcome of one executed bet, in engine units.
type BetResult struct {
	MarketID        string
	Username        string
	Side            model.Side
	SpendCents      int64
	NewBalanceCents int64
	Quote           cpmm.Quote
}

// --- Conversions ---

// pointsToCents converts a point amount with at most two fractional digits
// into cents. Anything non-positive, finer-grained than a cent, or too
// large for an int64 cent count is an InvalidAmount. The range check
// matters: IntPart wraps silently outside int64, which would turn a huge
// spend into a negative one.
func pointsToCents(points decimal.Decimal) (int64, error) {
	if points.Sign() <= 0 {
		return 0, model.ErrInvalidAmount
	}
	cents := points.Shift(2)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return 0, model.ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// seedToCents converts a non-negative seed amount in points to cents,
// rounding sub-cent fractions, with the same int64 range guard.
func seedToCents(points decimal.Decimal) (int64, error) {
	if points.Sign() < 0 {
		return 0, model.ErrInvalidAmount
	}
	cents := points.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, model.ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

func centsToPoints(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(PriceScale)
}

func oddsOut(o cpmm.OddsPair) OddsOut {
	return OddsOut{Yes: dec(o.Yes), No: dec(o.No)}
}

// --- Core operations ---

// PlaceBet executes one buy: it checks the market is open and the user can
// cover the spend, prices the buy against the current pools, and applies
// the five mutations — balance debit, traded-side real-pool increase,
// position upsert, ledger append — in one transaction. All of it commits
// or none of it does; the returned quote describes the post-trade state
// the caller just produced.
func (s *Service) PlaceBet(ctx context.Context, marketID, username string, side model.Side, spendPoints decimal.Decimal) (*BetResult, error) {
	if !side.Valid() {
		return nil, model.ErrInvalidAmount
	}
	spendCents, err := pointsToCents(spendPoints)
	if err != nil {
		metrics.BetsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, err
	}

	start := time.Now()

	// Serialize bet execution in-process.
	s.mu.Lock()
	defer s.mu.Unlock()

	var res BetResult
	err = s.store.Atomically(ctx, func(tx store.Tx) error {
		m, err := tx.GetMarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if !m.Open || m.Settled {
			return model.ErrMarketClosed
		}

		u, err := tx.GetUserForUpdate(ctx, username)
		if err != nil {
			return err
		}
		if u.BalanceCents < spendCents {
			return model.ErrInsufficientBalance
		}

		if s.limiter != nil {
			prior, err := tx.UserMarketSpendCents(ctx, marketID, username)
			if err != nil {
				return err
			}
			if err := s.limiter.Check(spendCents, prior); err != nil {
				return err
			}
		}

		quote := cpmm.Apply(side == model.SideYes, spendCents,
			m.YesRealCents, m.NoRealCents, m.VirtYesCents, m.VirtNoCents)

		if err := tx.AddUserBalance(ctx, username, -spendCents); err != nil {
			return err
		}
		if err := tx.SetRealPools(ctx, marketID, quote.NewYesRealCents, quote.NewNoRealCents); err != nil {
			return err
		}

		addYes, addNo := quote.SharesIssued, 0.0
		if side == model.SideNo {
			addYes, addNo = 0.0, quote.SharesIssued
		}
		if err := tx.AddPositionShares(ctx, marketID, username, addYes, addNo); err != nil {
			return err
		}

		if err := tx.InsertBet(ctx, &model.BetEntry{
			ID:          uuid.New().String(),
			MarketID:    marketID,
			Username:    username,
			Side:        side,
			AmountCents: spendCents,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		res = BetResult{
			MarketID:        marketID,
			Username:        username,
			Side:            side,
			SpendCents:      spendCents,
			NewBalanceCents: u.BalanceCents - spendCents,
			Quote:           quote,
		}
		return nil
	})
	if err != nil {
		metrics.BetsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.BetsTotal.WithLabelValues(string(side)).Inc()
	metrics.BetVolumeCents.WithLabelValues(string(side)).Add(float64(spendCents))
	metrics.BetLatency.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())

	slog.Info("bet executed",
		"market", marketID,
		"user", username,
		"side", side,
		"spend_cents", spendCents,
		"shares", res.Quote.SharesIssued,
		"price_yes_after", res.Quote.PriceYesAfter,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:     "bet_executed",
			MarketID: marketID,
			Side:     string(side),
			PriceYes: dec(res.Quote.PriceYesAfter).String(),
			OddsYes:  dec(res.Quote.Odds.Yes).String(),
			OddsNo:   dec(res.Quote.Odds.No).String(),
		})
	}

	return &res, nil
}

// Preview prices a buy without persisting anything.
func (s *Service) Preview(ctx context.Context, marketID string, side model.Side, spendPoints decimal.Decimal) (*cpmm.Quote, error) {
	if !side.Valid() {
		return nil, model.ErrInvalidAmount
	}
	// A zero-change preview reflecting current prices is allowed here;
	// only negatives and sub-cent precision are rejected.
	var spendCents int64
	if spendPoints.Sign() > 0 {
		var err error
		spendCents, err = pointsToCents(spendPoints)
		if err != nil {
			return nil, err
		}
	} else if spendPoints.Sign() < 0 {
		return nil, model.ErrInvalidAmount
	}

	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	quote := cpmm.Preview(side == model.SideYes, spendCents,
		m.YesRealCents, m.NoRealCents, m.VirtYesCents, m.VirtNoCents)
	return &quote, nil
}

// CreateMarketFromRequest validates and persists a new market. Seeds become
// the fixed virtual pools; real pools start at zero. When a prior is given
// the seeds are derived from it instead.
func (s *Service) CreateMarketFromRequest(ctx context.Context, req CreateMarketRequest) (*model.Market, error) {
	if len(req.Question) < 5 || len(req.Question) > 200 {
		return nil, model.ErrInvalidAmount
	}
	if req.ClosesAt.IsZero() {
		return nil, model.ErrInvalidAmount
	}

	var virtYes, virtNo int64
	if req.PriorYes.Sign() > 0 {
		prior, _ := req.PriorYes.Float64()
		depthCents, err := pointsToCents(req.DepthPoints)
		if err != nil {
			return nil, err
		}
		virtYes, virtNo, err = cpmm.SeedsForPrior(prior, depthCents)
		if err != nil {
			return nil, model.ErrInvalidAmount
		}
	} else {
		var err error
		if virtYes, err = seedToCents(req.SeedYesPoints); err != nil {
			return nil, err
		}
		if virtNo, err = seedToCents(req.SeedNoPoints); err != nil {
			return nil, err
		}
	}

	m := &model.Market{
		ID:           uuid.New().String(),
		Question:     req.Question,
		ClosesAt:     req.ClosesAt.UTC(),
		Open:         true,
		Settled:      false,
		YesRealCents: 0,
		NoRealCents:  0,
		VirtYesCents: virtYes,
		VirtNoCents:  virtNo,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateMarket(ctx, m); err != nil {
		return nil, err
	}

	metrics.OpenMarkets.Inc()
	slog.Info("market created",
		"id", m.ID,
		"question", m.Question,
		"virt_yes_cents", virtYes,
		"virt_no_cents", virtNo,
	)
	return m, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, model.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, model.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, limits.ErrBetTooLarge), errors.Is(err, limits.ErrMarketExposureExceeded):
		return "limit"
	default:
		return "storage"
	}
}

// --- HTTP Handlers ---

// HandleCreateMarket handles POST /api/v1/markets (admin).
func (s *Service) HandleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := s.CreateMarketFromRequest(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(MarketToOut(m))
}

// HandleListMarkets handles GET /api/v1/markets?status=open|closed|settled.
func (s *Service) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	status := model.StatusFilter(r.URL.Query().Get("status"))
	markets, err := s.store.ListMarkets(r.Context(), status)
	if err != nil {
		writeError(w, "failed to list markets", http.StatusInternalServerError)
		return
	}

	out := make([]MarketOut, 0, len(markets))
	for i := range markets {
		out = append(out, MarketToOut(&markets[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// HandleGetMarket handles GET /api/v1/markets/{marketID}.
func (s *Service) HandleGetMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMarket(r.Context(), chi.URLParam(r, "marketID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MarketToOut(m))
}

// HandlePlaceBet handles POST /api/v1/markets/{marketID}/bet.
func (s *Service) HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	var req BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		writeError(w, "username is required", http.StatusBadRequest)
		return
	}

	res, err := s.PlaceBet(r.Context(), marketID, req.Username, req.Side, req.SpendPoints)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := BetResponse{
		OK:                    true,
		NewBalancePoints:      centsToPoints(res.NewBalanceCents),
		SharesPointsIssued:    dec(res.Quote.SharesIssued),
		PriceYesAfter:         dec(res.Quote.PriceYesAfter),
		Odds:                  oddsOut(res.Quote.Odds),
		ImpliedPayoutPer1Spot: oddsOut(res.Quote.ImpliedPayoutPer1),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandlePreviewBet handles POST /api/v1/markets/{marketID}/preview.
func (s *Service) HandlePreviewBet(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	var req BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := s.Preview(r.Context(), marketID, req.Side, req.SpendPoints)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := PreviewResponse{
		SharesPointsIssued:    dec(quote.SharesIssued),
		PriceYesAfter:         dec(quote.PriceYesAfter),
		Odds:                  oddsOut(quote.Odds),
		ImpliedPayoutPer1Spot: oddsOut(quote.ImpliedPayoutPer1),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleCreateUser handles POST /api/v1/users (admin).
func (s *Service) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		writeError(w, "username is required", http.StatusBadRequest)
		return
	}

	balanceCents := DefaultStartingBalanceCents
	if req.StartingPoints.Sign() != 0 {
		if req.StartingPoints.Sign() < 0 {
			writeError(w, "starting_points must be >= 0", http.StatusBadRequest)
			return
		}
		cents := req.StartingPoints.Shift(2)
		if !cents.IsInteger() || !cents.BigInt().IsInt64() {
			writeError(w, "starting_points must be a representable amount with at most 2 fractional digits", http.StatusBadRequest)
			return
		}
		balanceCents = cents.IntPart()
	}

	u := &model.User{
		Username:     req.Username,
		BalanceCents: balanceCents,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		writeError(w, "user create failed: "+err.Error(), http.StatusConflict)
		return
	}

	slog.Info("user created", "username", u.Username, "balance_cents", u.BalanceCents)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UserOut{Username: u.Username, BalancePoints: centsToPoints(u.BalanceCents)})
}

// HandleGetUser handles GET /api/v1/users/{username}.
func (s *Service) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UserOut{Username: u.Username, BalancePoints: centsToPoints(u.BalanceCents)})
}

// HandleListUsers handles GET /api/v1/users (admin), richest first.
func (s *Service) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	out := make([]UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, UserOut{Username: u.Username, BalancePoints: centsToPoints(u.BalanceCents)})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// UserBetOut is one row of a user's bet history, joined with its market.
type UserBetOut struct {
	MarketID    string          `json:"market_id"`
	Question    string          `json:"question"`
	ClosesAt    time.Time       `json:"closes_at"`
	Open        bool            `json:"open"`
	Side        model.Side      `json:"side"`
	SpendPoints decimal.Decimal `json:"spend_points"`
	CreatedAt   time.Time       `json:"created_at"`
}

// HandleUserBets handles GET /api/v1/users/{username}/bets, newest first.
func (s *Service) HandleUserBets(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	bets, err := s.store.ListBetsByUser(r.Context(), username)
	if err != nil {
		writeError(w, "failed to list bets", http.StatusInternalServerError)
		return
	}

	marketCache := make(map[string]*model.Market)
	out := make([]UserBetOut, 0, len(bets))
	for _, b := range bets {
		m, ok := marketCache[b.MarketID]
		if !ok {
			m, _ = s.store.GetMarket(r.Context(), b.MarketID)
			marketCache[b.MarketID] = m
		}
		row := UserBetOut{
			MarketID:    b.MarketID,
			Side:        b.Side,
			SpendPoints: centsToPoints(b.AmountCents),
			CreatedAt:   b.CreatedAt,
		}
		if m != nil {
			row.Question = m.Question
			row.ClosesAt = m.ClosesAt
			row.Open = m.Open
		}
		out = append(out, row)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// HandleListBets handles GET /api/v1/admin/bets?limit=N (admin), newest
// first.
func (s *Service) HandleListBets(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := parsePositiveInt(raw, 1000); err == nil {
			limit = n
		}
	}
	bets, err := s.store.ListBets(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to list bets", http.StatusInternalServerError)
		return
	}
	if bets == nil {
		bets = []model.BetEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bets)
}

func parsePositiveInt(raw string, max int) (int, error) {
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, errors.New("not a number")
		}
		n = n*10 + int(c-'0')
		if n > max {
			return max, nil
		}
	}
	if n < 1 {
		return 0, errors.New("must be >= 1")
	}
	return n, nil
}

// MarketToOut assembles the external market shape from effective-pool
// pricing.
func MarketToOut(m *model.Market) MarketOut {
	yEff, nEff := cpmm.EffectivePools(m.YesRealCents, m.NoRealCents, m.VirtYesCents, m.VirtNoCents)
	return MarketOut{
		ID:                    m.ID,
		Question:              m.Question,
		ClosesAt:              m.ClosesAt,
		Open:                  m.Open,
		Settled:               m.Settled,
		Winner:                m.Winner,
		YesPoolPoints:         centsToPoints(m.YesRealCents),
		NoPoolPoints:          centsToPoints(m.NoRealCents),
		Odds:                  oddsOut(cpmm.OddsFromPools(yEff, nEff)),
		PriceYes:              dec(cpmm.SpotPriceYes(yEff, nEff)),
		ImpliedPayoutPer1Spot: oddsOut(cpmm.ImpliedPayoutPer1(yEff, nEff)),
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeDomainError maps a domain error kind onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrInvalidAmount):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrInsufficientBalance):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrMarketClosed), errors.Is(err, model.ErrInvalidState):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, limits.ErrBetTooLarge), errors.Is(err, limits.ErrMarketExposureExceeded):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
