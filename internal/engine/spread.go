// Package engine enriches cross-venue clusters into arbitrage opportunities
// and drives the periodic recompute/publish cycle.
package engine

import (
	"math"

	"github.com/predictarb/predictarb/internal/domain"
)

// buyPriceEpsilon guards the spread-percent division against a zero-priced
// buy side.
const buyPriceEpsilon = 0.001

// defaultExposureShare is the fraction of the thinner side's 24h volume
// assumed capturable before moving the market.
const defaultExposureShare = 0.10

// BestQuotes picks the cheapest and most expensive YES quotes among the
// cluster members. It returns ok=false when fewer than two members carry a
// usable price, in which case the cluster is not emitted.
func BestQuotes(members []domain.MarketRecord) (bestBuy, bestSell domain.Quote, ok bool) {
	priced := 0
	for _, m := range members {
		if !m.HasYesPrice() {
			continue
		}
		p := *m.YesPrice
		if priced == 0 {
			bestBuy = domain.Quote{Venue: m.Venue, Price: p}
			bestSell = bestBuy
		} else {
			if p < bestBuy.Price {
				bestBuy = domain.Quote{Venue: m.Venue, Price: p}
			}
			if p > bestSell.Price {
				bestSell = domain.Quote{Venue: m.Venue, Price: p}
			}
		}
		priced++
	}
	return bestBuy, bestSell, priced >= 2
}

// SpreadPercent returns the spread relative to the buy price, in percent.
// A zero buy price is clamped to a small epsilon so the division fails closed
// rather than exploding.
func SpreadPercent(buy, sell float64) float64 {
	if sell <= buy {
		return 0
	}
	return (sell - buy) / math.Max(buy, buyPriceEpsilon) * 100
}

// ProfitPotential estimates the aggregate dollar opportunity: the spread
// applied to the share of the thinner side's 24h volume that could plausibly
// be absorbed. Exposure is bounded by the thin side; you cannot realize more
// profit than the smaller market can take.
func ProfitPotential(spread, minSideVolume, exposureShare float64) float64 {
	if spread <= 0 || minSideVolume <= 0 {
		return 0
	}
	if exposureShare <= 0 {
		exposureShare = defaultExposureShare
	}
	return spread * minSideVolume * exposureShare
}

// MinSideVolume is the smaller of the two legs' 24h volumes.
func MinSideVolume(members map[domain.Venue]domain.MarketRecord, bestBuy, bestSell domain.Quote) float64 {
	buyVol := members[bestBuy.Venue].Volume24h
	sellVol := members[bestSell.Venue].Volume24h
	return math.Min(buyVol, sellVol)
}
