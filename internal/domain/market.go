package domain

import "time"

// Venue identifies a prediction-market trading platform.
type Venue string

const (
	VenuePolymarket   Venue = "polymarket"
	VenueKalshi       Venue = "kalshi"
	VenueLimitless    Venue = "limitless"
	VenueOpinionTrade Venue = "opiniontrade"
)

// AllVenues lists every supported venue in stable order.
var AllVenues = []Venue{VenuePolymarket, VenueKalshi, VenueLimitless, VenueOpinionTrade}

// Valid reports whether v is one of the supported venues.
func (v Venue) Valid() bool {
	switch v {
	case VenuePolymarket, VenueKalshi, VenueLimitless, VenueOpinionTrade:
		return true
	}
	return false
}

// MarketStatus represents the lifecycle state of a listing.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "active"
	MarketStatusClosed   MarketStatus = "closed"
	MarketStatusResolved MarketStatus = "resolved"
)

// MarketRecord is one listing on one venue, already normalized by the venue
// feed that produced it. The engine treats records as read-only input.
type MarketRecord struct {
	Venue       Venue
	ExternalID  string
	Title       string
	YesPrice    *float64 // probability in [0,1]; nil when the venue has no quote
	NoPrice     *float64
	VolumeTotal float64
	Volume24h   float64
	EndTime     *time.Time
	Status      MarketStatus
	FetchedAt   time.Time
}

// HasYesPrice reports whether the record carries a usable YES quote.
func (r MarketRecord) HasYesPrice() bool {
	return r.YesPrice != nil && *r.YesPrice >= 0 && *r.YesPrice <= 1
}

// Eligible reports whether the record can participate in clustering: it must
// be an active listing with a title, a usable YES quote, and sane volume.
// Malformed records are skipped rather than failing the whole cycle.
func (r MarketRecord) Eligible() bool {
	if r.Status != MarketStatusActive {
		return false
	}
	if r.Title == "" || !r.Venue.Valid() {
		return false
	}
	if !r.HasYesPrice() {
		return false
	}
	return r.VolumeTotal >= 0 && r.Volume24h >= 0
}
