// Package cpmm implements the constant-product market maker (CPMM) with
// virtual liquidity for binary prediction markets.
//
// The model is Uniswap-style x*y = k applied to a YES pool and a NO pool:
//   - Pools are denominated in cents; the pricing math always runs against
//     the *effective* pools (real traded cents + fixed virtual depth).
//   - Virtual depth is set at market creation and never mutated by trading;
//     it keeps prices well-defined before any real money arrives.
//   - Spot price of YES is noEff / (yesEff + noEff); prices sum to 1.
//   - Shares are points: 1.0 share pays exactly 100 cents if its side wins.
//
// All functions are pure — no I/O, no mutation. Pool sizes cross this
// package as integer cents and are converted to float64 only for the price
// integration; results are converted to decimal in the layers that speak
// JSON.
package cpmm

import (
	"errors"
	"math"
)

// Eps is the numeric guard against division by zero. Effective pools are
// floored here, which also keeps spot prices strictly inside (0,1).
const Eps = 1e-12

const (
	// centsPerStep is the target sub-chunk size of the buy integration.
	// Fixed accuracy/cost tradeoff; changing it changes issued shares for
	// historical inputs, so it must stay at 50.
	centsPerStep = 50

	// maxSteps bounds the integration work for very large spends.
	maxSteps = 100
)

var (
	// ErrInvalidPrior is returned when a seed prior is outside (0,1).
	ErrInvalidPrior = errors.New("cpmm: prior probability must be strictly between 0 and 1")

	// ErrInvalidDepth is returned when a virtual depth is not positive.
	ErrInvalidDepth = errors.New("cpmm: virtual depth must be positive")
)

// OddsPair is a YES/NO display pair.
type OddsPair struct {
	Yes float64 `json:"yes"`
	No  float64 `json:"no"`
}

// EffectivePools sums real and virtual cents per side and floors each at
// Eps so every downstream ratio is well-defined.
func EffectivePools(yesRealCents, noRealCents, virtYesCents, virtNoCents int64) (yEff, nEff float64) {
	yEff = float64(yesRealCents + virtYesCents)
	nEff = float64(noRealCents + virtNoCents)
	if yEff < Eps {
		yEff = Eps
	}
	if nEff < Eps {
		nEff = Eps
	}
	return yEff, nEff
}

// SpotPriceYes returns the instantaneous price of a YES share in points per
// share, i.e. (0,1). Buying YES moves money into the YES pool, which lowers
// the NO share of the total and raises this price.
func SpotPriceYes(yesEff, noEff float64) float64 {
	return noEff / (yesEff + noEff)
}

// SpotPriceNo is the complement of SpotPriceYes; the two always sum to 1.
func SpotPriceNo(yesEff, noEff float64) float64 {
	return yesEff / (yesEff + noEff)
}

// OddsFromPools returns the display odds implied by the effective pools.
// Falls back to even odds if both pools are ~0, which cannot happen once
// the Eps floor has been applied.
func OddsFromPools(yesEff, noEff float64) OddsPair {
	total := yesEff + noEff
	if total < Eps {
		return OddsPair{Yes: 0.5, No: 0.5}
	}
	return OddsPair{Yes: yesEff / total, No: noEff / total}
}

// ImpliedPayoutPer1 returns the naive "payout per 1 point" multiple at the
// spot price: 1/p per side. Display only — the realized multiple depends on
// the average fill across the buy, which is always worse than spot.
func ImpliedPayoutPer1(yesEff, noEff float64) OddsPair {
	pYes := SpotPriceYes(yesEff, noEff)
	pNo := SpotPriceNo(yesEff, noEff)
	return OddsPair{
		Yes: 1.0 / math.Max(pYes, Eps),
		No:  1.0 / math.Max(pNo, Eps),
	}
}

// integrationSteps returns the number of sub-chunks for a spend: roughly
// one per 50 cents, at least 1, capped at 100.
func integrationSteps(spendCents int64) int {
	steps := int(spendCents/centsPerStep) + 1
	if steps < 1 {
		steps = 1
	}
	if steps > maxSteps {
		steps = maxSteps
	}
	return steps
}

// sharesForSpendYes integrates the YES price curve over a spend.
//
// A single discrete fill at the pre-trade price would under-charge a large
// buy, so the spend is sliced into sub-chunks; each chunk is priced at the
// current spot, converted to shares via dShares = (dSpend/100)/price, and
// then moved through the effective pools (YES up, NO down, preserving the
// product) before the next chunk is priced. The remaining spend is split
// evenly across the steps still to run. This converges to the closed-form
// integral as the chunk size shrinks.
func sharesForSpendYes(yesEff, noEff, spendCents float64) float64 {
	steps := integrationSteps(int64(spendCents))
	remaining := spendCents
	shares := 0.0
	y, n := yesEff, noEff
	for i := 0; i < steps; i++ {
		if remaining <= 0 {
			break
		}
		dS := remaining / float64(steps-i)
		price := SpotPriceYes(y, n)
		shares += (dS / 100.0) / math.Max(price, Eps)
		y += dS
		n = math.Max(n-dS, Eps)
		remaining -= dS
	}
	return shares
}

// sharesForSpendNo is symmetric to sharesForSpendYes.
func sharesForSpendNo(yesEff, noEff, spendCents float64) float64 {
	steps := integrationSteps(int64(spendCents))
	remaining := spendCents
	shares := 0.0
	y, n := yesEff, noEff
	for i := 0; i < steps; i++ {
		if remaining <= 0 {
			break
		}
		dS := remaining / float64(steps-i)
		price := SpotPriceNo(y, n)
		shares += (dS / 100.0) / math.Max(price, Eps)
		n += dS
		y = math.Max(y-dS, Eps)
		remaining -= dS
	}
	return shares
}

// SharesForSpend returns the shares issued for spending spendCents on one
// side at the given effective pools. Strictly positive for positive spend
// and monotonically non-decreasing in spend.
func SharesForSpend(yes bool, yesEff, noEff float64, spendCents int64) float64 {
	if spendCents <= 0 {
		return 0
	}
	if yes {
		return sharesForSpendYes(yesEff, noEff, float64(spendCents))
	}
	return sharesForSpendNo(yesEff, noEff, float64(spendCents))
}

// Quote is the outcome of pricing one buy.
type Quote struct {
	// NewYesRealCents/NewNoRealCents are the real pools after the buy.
	// Only the traded side moves; virtual depth never does.
	NewYesRealCents int64
	NewNoRealCents  int64

	// SharesIssued is the share points minted to the buyer.
	SharesIssued float64

	// PriceYesAfter, Odds and ImpliedPayoutPer1 describe the post-trade
	// state the buyer just produced.
	PriceYesAfter     float64
	Odds              OddsPair
	ImpliedPayoutPer1 OddsPair
}

// Preview prices a buy without any pool mutation semantics: the post-trade
// price is taken from the symmetric effective-pool move the integration
// itself performs (spend added to the bought side, removed from the other).
// A non-positive spend short-circuits to a zero-share quote at current
// prices.
func Preview(yes bool, spendCents, yesRealCents, noRealCents, virtYesCents, virtNoCents int64) Quote {
	yEff, nEff := EffectivePools(yesRealCents, noRealCents, virtYesCents, virtNoCents)
	if spendCents <= 0 {
		return quoteAt(yesRealCents, noRealCents, yEff, nEff, 0)
	}

	shares := SharesForSpend(yes, yEff, nEff, spendCents)

	var yAfter, nAfter float64
	if yes {
		yAfter = yEff + float64(spendCents)
		nAfter = math.Max(nEff-float64(spendCents), Eps)
	} else {
		nAfter = nEff + float64(spendCents)
		yAfter = math.Max(yEff-float64(spendCents), Eps)
	}
	return quoteAt(yesRealCents, noRealCents, yAfter, nAfter, shares)
}

// Apply prices a buy and returns the real-pool state to persist: the full
// spend lands in the traded side's real pool and the opposite real pool is
// untouched. Post-trade prices are recomputed from those persisted pools
// plus the fixed virtual depth, so the quote matches exactly what a
// follow-up read would see.
func Apply(yes bool, spendCents, yesRealCents, noRealCents, virtYesCents, virtNoCents int64) Quote {
	yEff, nEff := EffectivePools(yesRealCents, noRealCents, virtYesCents, virtNoCents)
	if spendCents <= 0 {
		return quoteAt(yesRealCents, noRealCents, yEff, nEff, 0)
	}

	shares := SharesForSpend(yes, yEff, nEff, spendCents)

	newYesReal, newNoReal := yesRealCents, noRealCents
	if yes {
		newYesReal += spendCents
	} else {
		newNoReal += spendCents
	}

	yAfter, nAfter := EffectivePools(newYesReal, newNoReal, virtYesCents, virtNoCents)
	return quoteAt(newYesReal, newNoReal, yAfter, nAfter, shares)
}

func quoteAt(yesRealCents, noRealCents int64, yEff, nEff, shares float64) Quote {
	return Quote{
		NewYesRealCents:   yesRealCents,
		NewNoRealCents:    noRealCents,
		SharesIssued:      shares,
		PriceYesAfter:     SpotPriceYes(yEff, nEff),
		Odds:              OddsFromPools(yEff, nEff),
		ImpliedPayoutPer1: ImpliedPayoutPer1(yEff, nEff),
	}
}

// SeedsForPrior derives the virtual pools that make a fresh market open at
// a given YES probability. With price_yes = n/(y+n), a prior p over a total
// virtual depth D splits as virtNo = p*D and virtYes = (1-p)*D.
func SeedsForPrior(prior float64, depthCents int64) (virtYesCents, virtNoCents int64, err error) {
	if prior <= 0 || prior >= 1 || math.IsNaN(prior) {
		return 0, 0, ErrInvalidPrior
	}
	if depthCents <= 0 {
		return 0, 0, ErrInvalidDepth
	}
	virtNoCents = int64(math.Round(prior * float64(depthCents)))
	virtYesCents = depthCents - virtNoCents
	return virtYesCents, virtNoCents, nil
}
