package opiniontrade

import (
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// apiMarket is a market as returned by the OpinionTrade API. Probabilities
// are decimals in [0,1].
type apiMarket struct {
	MarketID  string  `json:"market_id"`
	Question  string  `json:"question"`
	Status    string  `json:"status"` // "open", "closed", "resolved"
	YesPrice  float64 `json:"yes_price"`
	NoPrice   float64 `json:"no_price"`
	Volume    float64 `json:"volume_total"`
	Volume24h float64 `json:"volume_24h"`
	ClosesAt  string  `json:"closes_at"` // RFC3339
}

// ToRecord maps the API market to a domain record. ok is false when the YES
// price is outside [0,1].
func (m *apiMarket) ToRecord(fetchedAt time.Time) (domain.MarketRecord, bool) {
	if m.YesPrice <= 0 || m.YesPrice > 1 {
		return domain.MarketRecord{}, false
	}
	yes, no := m.YesPrice, m.NoPrice

	rec := domain.MarketRecord{
		Venue:       domain.VenueOpinionTrade,
		ExternalID:  m.MarketID,
		Title:       m.Question,
		YesPrice:    &yes,
		NoPrice:     &no,
		VolumeTotal: m.Volume,
		Volume24h:   m.Volume24h,
		FetchedAt:   fetchedAt,
	}
	switch m.Status {
	case "open":
		rec.Status = domain.MarketStatusActive
	case "resolved":
		rec.Status = domain.MarketStatusResolved
	default:
		rec.Status = domain.MarketStatusClosed
	}
	if t, err := time.Parse(time.RFC3339, m.ClosesAt); err == nil {
		rec.EndTime = &t
	}
	return rec, true
}
