package kalshi

import (
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// apiMarket is a market as returned by the Kalshi trade API. All prices are
// integer cents.
type apiMarket struct {
	Ticker    string    `json:"ticker"`
	Title     string    `json:"title"`
	Status    string    `json:"status"` // "active", "closed", "settled"
	YesBid    int       `json:"yes_bid"`
	YesAsk    int       `json:"yes_ask"`
	LastPrice int       `json:"last_price"`
	Volume    float64   `json:"volume"`
	Volume24h float64   `json:"volume_24h"`
	CloseTime time.Time `json:"close_time"`
}

// ToRecord maps the API market to a domain record. ok is false when no
// usable YES price can be derived.
func (m *apiMarket) ToRecord(fetchedAt time.Time) (domain.MarketRecord, bool) {
	yes, ok := m.yesPrice()
	if !ok {
		return domain.MarketRecord{}, false
	}
	no := 1 - yes

	rec := domain.MarketRecord{
		Venue:       domain.VenueKalshi,
		ExternalID:  m.Ticker,
		Title:       m.Title,
		YesPrice:    &yes,
		NoPrice:     &no,
		VolumeTotal: m.Volume,
		Volume24h:   m.Volume24h,
		FetchedAt:   fetchedAt,
	}
	switch m.Status {
	case "active":
		rec.Status = domain.MarketStatusActive
	case "settled", "finalized":
		rec.Status = domain.MarketStatusResolved
	default:
		rec.Status = domain.MarketStatusClosed
	}
	if !m.CloseTime.IsZero() {
		t := m.CloseTime
		rec.EndTime = &t
	}
	return rec, true
}

// yesPrice derives a [0,1] probability: the bid/ask midpoint when both sides
// are quoted, otherwise the last trade price.
func (m *apiMarket) yesPrice() (float64, bool) {
	var cents float64
	switch {
	case m.YesBid > 0 && m.YesAsk > 0:
		cents = float64(m.YesBid+m.YesAsk) / 2
	case m.LastPrice > 0:
		cents = float64(m.LastPrice)
	default:
		return 0, false
	}
	p := cents / 100
	if p < 0 || p > 1 {
		return 0, false
	}
	return p, true
}
