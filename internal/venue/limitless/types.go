package limitless

import (
	"strconv"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// apiMarket is a market as returned by the Limitless Exchange API. Prices
// arrive as percentage strings per outcome, in Yes/No order.
type apiMarket struct {
	Address  string   `json:"address"` // on-chain market address, used as ID
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Prices   []string `json:"prices"` // e.g. ["62.5", "37.5"]
	Volume   string   `json:"volumeFormatted"`
	Expired  bool     `json:"expired"`
	Deadline string   `json:"deadline"` // RFC3339
}

// ToRecord maps the API market to a domain record. ok is false when no
// parseable YES price exists.
func (m *apiMarket) ToRecord(fetchedAt time.Time) (domain.MarketRecord, bool) {
	if len(m.Prices) == 0 {
		return domain.MarketRecord{}, false
	}
	pct, err := strconv.ParseFloat(m.Prices[0], 64)
	if err != nil {
		return domain.MarketRecord{}, false
	}
	yes := pct / 100
	if yes < 0 || yes > 1 {
		return domain.MarketRecord{}, false
	}
	no := 1 - yes

	id := m.Address
	if id == "" {
		id = m.Slug
	}
	rec := domain.MarketRecord{
		Venue:      domain.VenueLimitless,
		ExternalID: id,
		Title:      m.Title,
		YesPrice:   &yes,
		NoPrice:    &no,
		Status:     domain.MarketStatusActive,
		FetchedAt:  fetchedAt,
	}
	if m.Expired {
		rec.Status = domain.MarketStatusClosed
	}
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		rec.VolumeTotal = v
	}
	if t, err := time.Parse(time.RFC3339, m.Deadline); err == nil {
		rec.EndTime = &t
	}
	return rec, true
}
