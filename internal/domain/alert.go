package domain

import (
	"strings"
	"time"
)

// AlertType tags the kind of condition an alert carries. Each type has its
// own typed conditions struct rather than an open map, so required fields are
// enforced at compile time.
type AlertType string

const AlertTypeArbitrage AlertType = "arbitrage"

// AlertChannel names a notification delivery channel.
type AlertChannel string

const (
	ChannelEmail    AlertChannel = "email"
	ChannelTelegram AlertChannel = "telegram"
	ChannelDiscord  AlertChannel = "discord"
)

// ArbitrageConditions are the conditions for an arbitrage alert. Zero values
// mean "no constraint" for the optional filters.
type ArbitrageConditions struct {
	MarketTitle   string  // optional substring filter on the opportunity title
	Platforms     []Venue // optional; opportunity must include every listed venue
	MinSpread     float64 // minimum spread percent
	MinMatchScore float64
}

// Matches reports whether the opportunity satisfies every condition.
func (c ArbitrageConditions) Matches(o Opportunity) bool {
	if o.SpreadPercent < c.MinSpread {
		return false
	}
	if o.MatchScore < c.MinMatchScore {
		return false
	}
	if c.MarketTitle != "" &&
		!strings.Contains(strings.ToLower(o.Title), strings.ToLower(c.MarketTitle)) {
		return false
	}
	for _, v := range c.Platforms {
		if _, ok := o.Members[v]; !ok {
			return false
		}
	}
	return true
}

// AlertDefinition is a user-defined alert. It is created by the user-facing
// API, read by the evaluator after every snapshot publish, and mutated only
// through trigger bookkeeping.
type AlertDefinition struct {
	ID           string
	OwnerContact string // email address of the owner
	Name         string
	Type         AlertType
	Conditions   ArbitrageConditions
	Channels     []AlertChannel
	Active       bool

	TriggerCount    int
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
}
