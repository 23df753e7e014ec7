// Package settle implements the market lifecycle transitions: closing a
// market to new bets, settling it to a winning side with a pro-rata payout
// of the winning side's real stake pool, and the admin purge.
//
// Settlement pays each winning-side holder round(pool * shares/totalShares)
// from the winning side's real pool, clamped so the sum of payouts never
// exceeds the pool. The virtual seed pools are pricing fiction and are
// never paid out.
package settle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/metrics"
	"github.com/openpredict/market-engine/internal/model"
	"github.com/openpredict/market-engine/internal/store"
	"github.com/openpredict/market-engine/internal/trade"
)

// Service drives market close, settlement, and purge.
type Service struct {
	store store.Store
	wsHub *trade.WSHub // optional
}

// NewService creates a settlement service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.Store, hub *trade.WSHub) *Service {
	return &Service{store: st, wsHub: hub}
}

// Payout is one holder's settlement credit.
type Payout struct {
	Username   string          `json:"username"`
	Shares     decimal.Decimal `json:"shares"`
	PaidPoints decimal.Decimal `json:"paid_points"`
	paidCents  int64
}

// SettleResult reports what a settlement (or a repeated settlement call)
// did.
type SettleResult struct {
	OK              bool            `json:"ok"`
	MarketID        string          `json:"market_id"`
	Winner          model.Side      `json:"winner"`
	AlreadySettled  bool            `json:"already_settled"`
	PoolPoints      decimal.Decimal `json:"pool_points"`
	TotalPaidPoints decimal.Decimal `json:"total_paid_points"`
	Payouts         []Payout        `json:"payouts"`
}

// Close transitions a market open→closed so it stops accepting bets.
// Closing a market that is not open fails with ErrInvalidState.
func (s *Service) Close(ctx context.Context, marketID string) error {
	err := s.store.Atomically(ctx, func(tx store.Tx) error {
		m, err := tx.GetMarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if !m.Open || m.Settled {
			return model.ErrInvalidState
		}
		return tx.CloseMarket(ctx, marketID)
	})
	if err != nil {
		return err
	}

	metrics.OpenMarkets.Dec()
	slog.Info("market closed", "market", marketID)

	if s.wsHub != nil {
		s.wsHub.Broadcast(trade.WSMessage{Type: "market_closed", MarketID: marketID})
	}
	return nil
}

// Settle resolves a closed market to the given winner and pays the
// winning side's real pool out pro-rata over that side's share holders.
// Calling Settle again on a settled market is a no-op success reporting
// the recorded winner and zero paid. Settling a market that is still open
// fails with ErrInvalidState.
func (s *Service) Settle(ctx context.Context, marketID string, winner model.Side) (*SettleResult, error) {
	if !winner.Valid() {
		return nil, model.ErrInvalidAmount
	}

	var res SettleResult
	err := s.store.Atomically(ctx, func(tx store.Tx) error {
		m, err := tx.GetMarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if m.Settled {
			res = SettleResult{
				OK:              true,
				MarketID:        marketID,
				Winner:          m.Winner,
				AlreadySettled:  true,
				TotalPaidPoints: decimal.Zero,
				Payouts:         []Payout{},
			}
			return nil
		}
		if m.Open {
			return model.ErrInvalidState
		}

		pool := m.YesRealCents
		if winner == model.SideNo {
			pool = m.NoRealCents
		}

		positions, err := tx.ListPositionsByMarket(ctx, marketID)
		if err != nil {
			return err
		}

		var totalShares float64
		for _, p := range positions {
			totalShares += p.SharesFor(winner)
		}

		payouts := make([]Payout, 0, len(positions))
		var totalPaid int64
		if totalShares > 0 && pool > 0 {
			budget := pool
			for _, p := range positions {
				shares := p.SharesFor(winner)
				if shares <= 0 {
					continue
				}
				paid := int64(math.Round(float64(pool) * shares / totalShares))
				if paid > budget {
					paid = budget
				}
				if paid > 0 {
					if err := tx.AddUserBalance(ctx, p.Username, paid); err != nil {
						return err
					}
					budget -= paid
				}
				totalPaid += paid
				payouts = append(payouts, Payout{
					Username:   p.Username,
					Shares:     decimal.NewFromFloat(shares).Round(trade.PriceScale),
					PaidPoints: decimal.New(paid, -2),
					paidCents:  paid,
				})
			}
		}

		if err := tx.ZeroPositions(ctx, marketID); err != nil {
			return err
		}
		if err := tx.MarkSettled(ctx, marketID, winner); err != nil {
			return err
		}

		res = SettleResult{
			OK:              true,
			MarketID:        marketID,
			Winner:          winner,
			PoolPoints:      decimal.New(pool, -2),
			TotalPaidPoints: decimal.New(totalPaid, -2),
			Payouts:         payouts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.AlreadySettled {
		metrics.SettlementsTotal.WithLabelValues(string(res.Winner)).Inc()
		for _, p := range res.Payouts {
			metrics.PayoutCents.Add(float64(p.paidCents))
		}
		slog.Info("market settled",
			"market", marketID,
			"winner", res.Winner,
			"holders_paid", len(res.Payouts),
			"total_paid_points", res.TotalPaidPoints,
		)
		if s.wsHub != nil {
			s.wsHub.Broadcast(trade.WSMessage{
				Type:     "market_settled",
				MarketID: marketID,
				Winner:   string(res.Winner),
			})
		}
	}
	return &res, nil
}

// Delete hard-deletes a market with its positions and ledger entries.
// Settled markets are kept as a payout record unless force is set.
func (s *Service) Delete(ctx context.Context, marketID string, force bool) error {
	var wasOpen bool
	err := s.store.Atomically(ctx, func(tx store.Tx) error {
		m, err := tx.GetMarketForUpdate(ctx, marketID)
		if err != nil {
			return err
		}
		if m.Settled && !force {
			return model.ErrInvalidState
		}
		wasOpen = m.Open
		return tx.DeleteMarket(ctx, marketID)
	})
	if err != nil {
		return err
	}
	if wasOpen {
		metrics.OpenMarkets.Dec()
	}
	slog.Info("market deleted", "market", marketID, "force", force)
	return nil
}

// --- HTTP Handlers ---

// HandleCloseMarket handles POST /api/v1/markets/{marketID}/close (admin).
func (s *Service) HandleCloseMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	if err := s.Close(r.Context(), marketID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "market_id": marketID, "closed_at": time.Now().UTC()})
}

// settleRequest is the JSON body for settlement.
type settleRequest struct {
	Winner model.Side `json:"winner"`
}

// HandleSettleMarket handles POST /api/v1/markets/{marketID}/settle (admin).
func (s *Service) HandleSettleMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.Settle(r.Context(), marketID, req.Winner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// HandleDeleteMarket handles DELETE /api/v1/admin/markets/{marketID}
// (admin). ?force=true purges a settled market too.
func (s *Service) HandleDeleteMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	force := r.URL.Query().Get("force") == "true"

	if err := s.Delete(r.Context(), marketID, force); err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "market_id": marketID})
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrInvalidAmount):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrMarketClosed):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
