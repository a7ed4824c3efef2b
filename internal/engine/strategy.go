package engine

import (
	"fmt"

	"github.com/predictarb/predictarb/internal/domain"
)

// BuildStrategy renders the buy/sell legs into a one-line instruction and an
// ordered list of execution steps. Pure formatting over already-computed
// fields; it never fails.
func BuildStrategy(bestBuy, bestSell domain.Quote) (summary string, steps []string) {
	summary = fmt.Sprintf("Buy YES on %s at %.1f¢, sell/short on %s at %.1f¢",
		bestBuy.Venue, bestBuy.Price*100, bestSell.Venue, bestSell.Price*100)

	steps = []string{
		fmt.Sprintf("Buy YES shares on %s at %.1f¢", bestBuy.Venue, bestBuy.Price*100),
		fmt.Sprintf("Sell or short the equivalent YES position on %s at %.1f¢", bestSell.Venue, bestSell.Price*100),
		"Monitor both venues for price convergence or early resolution",
		"Close both legs on convergence, or hold to resolution to capture the full spread",
	}
	return summary, steps
}
