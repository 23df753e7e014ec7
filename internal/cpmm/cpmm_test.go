package cpmm

import (
	"math"
	"testing"
)

// --- Effective pool tests ---

func TestEffectivePools_SumsRealAndVirtual(t *testing.T) {
	y, n := EffectivePools(500, 0, 100000, 100000)
	if y != 100500 {
		t.Errorf("expected yes effective 100500, got %f", y)
	}
	if n != 100000 {
		t.Errorf("expected no effective 100000, got %f", n)
	}
}

func TestEffectivePools_FlooredAtEps(t *testing.T) {
	y, n := EffectivePools(0, 0, 0, 0)
	if y < Eps || n < Eps {
		t.Errorf("pools must be floored at Eps, got y=%g n=%g", y, n)
	}
	if y != Eps || n != Eps {
		t.Errorf("empty pools should floor exactly at Eps, got y=%g n=%g", y, n)
	}
}

// --- Spot price tests ---

func TestSpotPrices_SumToOne(t *testing.T) {
	tests := []struct {
		yesReal, noReal, virtYes, virtNo int64
	}{
		{0, 0, 100000, 100000},
		{500, 0, 100000, 100000},
		{0, 2500, 100000, 100000},
		{123456, 654321, 500, 500},
		{1, 0, 0, 1},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		y, n := EffectivePools(tt.yesReal, tt.noReal, tt.virtYes, tt.virtNo)
		sum := SpotPriceYes(y, n) + SpotPriceNo(y, n)
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("prices should sum to 1, got %g for pools (%d,%d,%d,%d)",
				sum, tt.yesReal, tt.noReal, tt.virtYes, tt.virtNo)
		}
	}
}

func TestSpotPrices_StrictlyInsideUnitInterval(t *testing.T) {
	y, n := EffectivePools(1000000, 0, 0, 0)
	pYes := SpotPriceYes(y, n)
	if pYes <= 0 || pYes >= 1 {
		t.Errorf("price must stay inside (0,1) with the Eps floor, got %g", pYes)
	}
}

func TestSpotPrice_EvenAtEqualPools(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	if p := SpotPriceYes(y, n); p != 0.5 {
		t.Errorf("expected 0.5 at equal pools, got %g", p)
	}
}

func TestOddsFromPools_RatioOfTotals(t *testing.T) {
	odds := OddsFromPools(75000, 25000)
	if math.Abs(odds.Yes-0.75) > 1e-12 || math.Abs(odds.No-0.25) > 1e-12 {
		t.Errorf("expected odds {0.75, 0.25}, got {%g, %g}", odds.Yes, odds.No)
	}
	if math.Abs(odds.Yes+odds.No-1.0) > 1e-12 {
		t.Errorf("odds should sum to 1, got %g", odds.Yes+odds.No)
	}
}

func TestOddsFromPools_EvenFallbackAtZero(t *testing.T) {
	odds := OddsFromPools(0, 0)
	if odds.Yes != 0.5 || odds.No != 0.5 {
		t.Errorf("expected even fallback at ~0 pools, got {%g, %g}", odds.Yes, odds.No)
	}
}

func TestImpliedPayoutPer1_InverseOfSpot(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	mult := ImpliedPayoutPer1(y, n)
	if math.Abs(mult.Yes-2.0) > 1e-9 || math.Abs(mult.No-2.0) > 1e-9 {
		t.Errorf("even market should imply 2x per side, got {%g, %g}", mult.Yes, mult.No)
	}
}

// --- Share integration tests ---

func TestSharesForSpend_PositiveForPositiveSpend(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	shares := SharesForSpend(true, y, n, 500)
	if shares <= 0 {
		t.Errorf("positive spend must issue positive shares, got %g", shares)
	}
}

func TestSharesForSpend_ZeroForNonPositiveSpend(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	if shares := SharesForSpend(true, y, n, 0); shares != 0 {
		t.Errorf("zero spend should issue zero shares, got %g", shares)
	}
	if shares := SharesForSpend(false, y, n, -500); shares != 0 {
		t.Errorf("negative spend should issue zero shares, got %g", shares)
	}
}

func TestSharesForSpend_MonotonicInSpend(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	prev := 0.0
	for _, spend := range []int64{1, 50, 100, 500, 1000, 5000, 10000, 100000} {
		shares := SharesForSpend(true, y, n, spend)
		if shares < prev {
			t.Errorf("shares must be non-decreasing in spend: spend=%d shares=%g prev=%g",
				spend, shares, prev)
		}
		prev = shares
	}
}

func TestSharesForSpend_SymmetricAtEvenPools(t *testing.T) {
	y, n := EffectivePools(0, 0, 100000, 100000)
	yesShares := SharesForSpend(true, y, n, 500)
	noShares := SharesForSpend(false, y, n, 500)
	if math.Abs(yesShares-noShares) > 1e-9 {
		t.Errorf("even pools should price YES and NO identically: yes=%g no=%g",
			yesShares, noShares)
	}
}

func TestSharesForSpend_ChunkingBeatsSingleFill(t *testing.T) {
	// The integration reprices every ~50¢; with this price curve later
	// chunks fill cheaper, so the total must exceed a single fill at the
	// initial spot price.
	y, n := EffectivePools(0, 0, 100000, 100000)
	spend := int64(10000)
	single := (float64(spend) / 100.0) / SpotPriceYes(y, n)
	integrated := SharesForSpend(true, y, n, spend)
	if integrated <= single {
		t.Errorf("integrated fill should issue more than single fill: integrated=%g single=%g",
			integrated, single)
	}
}

func TestIntegrationSteps_Bounds(t *testing.T) {
	tests := []struct {
		spend int64
		want  int
	}{
		{1, 1},
		{49, 1},
		{50, 2},
		{100, 3},
		{4949, 99},
		{4950, 100},
		{1000000, 100},
	}
	for _, tt := range tests {
		if got := integrationSteps(tt.spend); got != tt.want {
			t.Errorf("integrationSteps(%d) = %d, want %d", tt.spend, got, tt.want)
		}
	}
}

// --- Preview / Apply tests ---

func TestApply_SeededScenario(t *testing.T) {
	// Market seeded with 1000/1000 virtual points, first buyer spends 500¢
	// on YES.
	q := Apply(true, 500, 0, 0, 100000, 100000)

	if q.NewYesRealCents != 500 {
		t.Errorf("expected YES real pool 500, got %d", q.NewYesRealCents)
	}
	if q.NewNoRealCents != 0 {
		t.Errorf("NO real pool must not move on a YES buy, got %d", q.NewNoRealCents)
	}
	if q.SharesIssued <= 0 {
		t.Errorf("expected positive shares, got %g", q.SharesIssued)
	}
	// Money flowing into the YES pool raises the YES share of the total.
	if q.Odds.Yes <= 0.5 {
		t.Errorf("YES odds should rise above 0.5 after a YES buy, got %g", q.Odds.Yes)
	}
	// Spot price is noEff/(yesEff+noEff), so it moves opposite the odds.
	if q.PriceYesAfter >= 0.5 {
		t.Errorf("spot YES price should fall below 0.5 after a YES buy, got %g", q.PriceYesAfter)
	}
	if math.Abs(q.Odds.Yes+q.Odds.No-1.0) > 1e-9 {
		t.Errorf("post-trade odds should sum to 1, got %g", q.Odds.Yes+q.Odds.No)
	}
}

func TestApply_OnlyTradedSideMoves(t *testing.T) {
	q := Apply(false, 1200, 300, 400, 100000, 100000)
	if q.NewYesRealCents != 300 {
		t.Errorf("YES real pool must not move on a NO buy, got %d", q.NewYesRealCents)
	}
	if q.NewNoRealCents != 1600 {
		t.Errorf("expected NO real pool 1600, got %d", q.NewNoRealCents)
	}
}

func TestApply_ZeroSpendIsNoChange(t *testing.T) {
	q := Apply(true, 0, 300, 400, 100000, 100000)
	if q.NewYesRealCents != 300 || q.NewNoRealCents != 400 {
		t.Errorf("zero spend must not move pools, got (%d,%d)",
			q.NewYesRealCents, q.NewNoRealCents)
	}
	if q.SharesIssued != 0 {
		t.Errorf("zero spend must issue zero shares, got %g", q.SharesIssued)
	}
}

func TestPreview_DoesNotReportPoolMutation(t *testing.T) {
	q := Preview(true, 500, 0, 0, 100000, 100000)
	if q.NewYesRealCents != 0 || q.NewNoRealCents != 0 {
		t.Errorf("preview must leave real pools untouched, got (%d,%d)",
			q.NewYesRealCents, q.NewNoRealCents)
	}
	if q.SharesIssued <= 0 {
		t.Errorf("preview should still price the buy, got %g shares", q.SharesIssued)
	}
}

func TestPreview_MatchesApplyShares(t *testing.T) {
	// Preview and Apply price the identical integral; only their post-trade
	// pool views differ.
	p := Preview(true, 2500, 100, 200, 100000, 100000)
	a := Apply(true, 2500, 100, 200, 100000, 100000)
	if math.Abs(p.SharesIssued-a.SharesIssued) > 1e-9 {
		t.Errorf("preview and apply must issue identical shares: %g vs %g",
			p.SharesIssued, a.SharesIssued)
	}
}

func TestPreview_ZeroSpendReflectsCurrentPrices(t *testing.T) {
	q := Preview(true, 0, 0, 0, 100000, 100000)
	if q.PriceYesAfter != 0.5 {
		t.Errorf("zero-spend preview should show current price 0.5, got %g", q.PriceYesAfter)
	}
}

// --- Seed derivation tests ---

func TestSeedsForPrior_EvenSplit(t *testing.T) {
	vy, vn, err := SeedsForPrior(0.5, 200000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vy != 100000 || vn != 100000 {
		t.Errorf("expected even 100000/100000 split, got %d/%d", vy, vn)
	}
	y, n := EffectivePools(0, 0, vy, vn)
	if p := SpotPriceYes(y, n); math.Abs(p-0.5) > 1e-9 {
		t.Errorf("seeded market should open at the prior, got price %g", p)
	}
}

func TestSeedsForPrior_OpensAtPrior(t *testing.T) {
	vy, vn, err := SeedsForPrior(0.7, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vy+vn != 100000 {
		t.Errorf("seeds must sum to the requested depth, got %d", vy+vn)
	}
	y, n := EffectivePools(0, 0, vy, vn)
	if p := SpotPriceYes(y, n); math.Abs(p-0.7) > 1e-4 {
		t.Errorf("seeded market should open near prior 0.7, got %g", p)
	}
}

func TestSeedsForPrior_RejectsInvalidInputs(t *testing.T) {
	if _, _, err := SeedsForPrior(0, 100000); err != ErrInvalidPrior {
		t.Errorf("expected ErrInvalidPrior for prior=0, got %v", err)
	}
	if _, _, err := SeedsForPrior(1, 100000); err != ErrInvalidPrior {
		t.Errorf("expected ErrInvalidPrior for prior=1, got %v", err)
	}
	if _, _, err := SeedsForPrior(0.5, 0); err != ErrInvalidDepth {
		t.Errorf("expected ErrInvalidDepth for depth=0, got %v", err)
	}
}
