package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") because the
// Gamma API sends "active" either way depending on the endpoint.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// apiMarket is a market as returned by the Gamma API. Outcomes and prices
// arrive as JSON-encoded strings inside strings.
type apiMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Active        flexBool `json:"active"`
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // e.g. "[\"0.62\",\"0.38\"]"
	Volume        string   `json:"volume"`
	Volume24hr    float64  `json:"volume24hr"`
	EndDate       string   `json:"endDate"` // RFC3339
}

// ToRecord maps the API market to a domain record. ok is false when the
// market has no parseable Yes/No price pair.
func (m *apiMarket) ToRecord(fetchedAt time.Time) (domain.MarketRecord, bool) {
	yes, no, ok := m.outcomePrices()
	if !ok {
		return domain.MarketRecord{}, false
	}

	rec := domain.MarketRecord{
		Venue:      domain.VenuePolymarket,
		ExternalID: m.ID,
		Title:      m.Question,
		YesPrice:   &yes,
		NoPrice:    &no,
		Status:     domain.MarketStatusActive,
		FetchedAt:  fetchedAt,
	}
	if m.Closed || !bool(m.Active) {
		rec.Status = domain.MarketStatusClosed
	}
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		rec.VolumeTotal = v
	}
	rec.Volume24h = m.Volume24hr
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		rec.EndTime = &t
	}
	return rec, true
}

// outcomePrices extracts the Yes and No prices from the doubly encoded
// outcomes/outcomePrices pair.
func (m *apiMarket) outcomePrices() (yes, no float64, ok bool) {
	var outcomes, prices []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return 0, 0, false
	}
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
		return 0, 0, false
	}
	if len(outcomes) != len(prices) {
		return 0, 0, false
	}

	foundYes := false
	for i, name := range outcomes {
		p, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			continue
		}
		switch {
		case strings.EqualFold(name, "Yes"):
			yes, foundYes = p, true
		case strings.EqualFold(name, "No"):
			no = p
		}
	}
	if !foundYes || yes < 0 || yes > 1 {
		return 0, 0, false
	}
	return yes, no, true
}
