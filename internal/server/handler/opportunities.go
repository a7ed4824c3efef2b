package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/snapshot"
)

// HistoryStore is the optional opportunity-history dependency. When nil, the
// history endpoint returns 501.
type HistoryStore interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error)
}

// OpportunityHandler serves read queries against the current snapshot.
type OpportunityHandler struct {
	store   *snapshot.Store
	history HistoryStore
	logger  *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler over the given store.
func NewOpportunityHandler(store *snapshot.Store, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{store: store, logger: logger}
}

// WithHistory sets the history store for the recent-history endpoint.
func (h *OpportunityHandler) WithHistory(history HistoryStore) *OpportunityHandler {
	h.history = history
	return h
}

// opportunityDTO is the wire shape of one opportunity.
type opportunityDTO struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Platforms []string           `json:"platforms"`
	MarketIDs map[string]string  `json:"market_ids"`
	Volumes   map[string]float64 `json:"volumes"`
	Prices    map[string]float64 `json:"prices"`

	BestBuyPlatform  string  `json:"best_buy_platform"`
	BestBuyPrice     float64 `json:"best_buy_price"`
	BestSellPlatform string  `json:"best_sell_platform"`
	BestSellPrice    float64 `json:"best_sell_price"`

	Spread          float64 `json:"spread"`
	SpreadPercent   float64 `json:"spread_percent"`
	ProfitPotential float64 `json:"profit_potential"`
	Confidence      string  `json:"confidence"`
	MatchScore      float64 `json:"match_score"`

	FeasibilityScore  float64 `json:"feasibility_score"`
	FeasibilityLabel  string  `json:"feasibility_label"`
	MinSideVolume     float64 `json:"min_side_volume"`
	EstimatedSlippage float64 `json:"estimated_slippage"`

	StrategySummary string   `json:"strategy_summary"`
	StrategySteps   []string `json:"strategy_steps"`
}

// statsDTO is the wire shape of the snapshot stats block.
type statsDTO struct {
	TotalOpportunities   int     `json:"total_opportunities"`
	AvgSpread            float64 `json:"avg_spread"`
	TotalProfitPotential float64 `json:"total_profit_potential"`
	MarketsScanned       int     `json:"markets_scanned"`
	PlatformPairs        int     `json:"platform_pairs"`
}

// listOpportunitiesResponse is the opportunities-db response envelope.
type listOpportunitiesResponse struct {
	Opportunities []opportunityDTO `json:"opportunities"`
	Stats         statsDTO         `json:"stats"`
	ComputedAt    string           `json:"computed_at"`
	Version       uint64           `json:"version"`
}

// List serves the filtered, ranked view of the current snapshot.
// GET /api/arbitrage/opportunities-db?min_spread=&min_match_score=&sort_by=&title=&platform=&limit=&offset=
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := h.store.Current()
	opps := snapshot.Apply(snap, q)

	dtos := make([]opportunityDTO, 0, len(opps))
	for i := range opps {
		dtos = append(dtos, toDTO(&opps[i]))
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{
		Opportunities: dtos,
		Stats:         toStatsDTO(snap.Stats),
		ComputedAt:    snap.ComputedAt.UTC().Format(time.RFC3339),
		Version:       snap.Version,
	})
}

// Stats serves only the snapshot stats block.
// GET /api/arbitrage/stats
func (h *OpportunityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       toStatsDTO(snap.Stats),
		"computed_at": snap.ComputedAt.UTC().Format(time.RFC3339),
		"version":     snap.Version,
	})
}

// History serves recently recorded opportunities from persistent history.
// GET /api/arbitrage/history?limit=50
func (h *OpportunityHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotImplemented, "opportunity history not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 500)
	}

	opps, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		logHandler(h.logger, "history").ErrorContext(r.Context(), "list recent opportunities failed",
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list opportunity history")
		return
	}

	dtos := make([]opportunityDTO, 0, len(opps))
	for i := range opps {
		dtos = append(dtos, toDTO(&opps[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": dtos})
}

// parseQuery builds a snapshot query from the URL parameters. Any malformed
// parameter is a 400, not a silent default.
func parseQuery(r *http.Request) (snapshot.Query, error) {
	params := r.URL.Query()
	var q snapshot.Query

	if v := params.Get("min_spread"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, errors.New("min_spread must be a number")
		}
		q.MinSpreadPercent = f
	}
	if v := params.Get("min_match_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, errors.New("min_match_score must be a number")
		}
		q.MinMatchScore = f
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("limit must be an integer")
		}
		q.Limit = n
	}
	if v := params.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("offset must be an integer")
		}
		q.Offset = n
	}
	q.Title = params.Get("title")
	q.Venue = domain.Venue(params.Get("platform"))

	sortBy, err := snapshot.ParseSortKey(params.Get("sort_by"))
	if err != nil {
		return q, err
	}
	q.SortBy = sortBy

	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

func toDTO(o *domain.Opportunity) opportunityDTO {
	dto := opportunityDTO{
		ID:        o.ID,
		Title:     o.Title,
		Platforms: make([]string, 0, len(o.Members)),
		MarketIDs: make(map[string]string, len(o.Members)),
		Volumes:   make(map[string]float64, len(o.Members)),
		Prices:    make(map[string]float64, len(o.Members)),

		BestBuyPlatform:  string(o.BestBuy.Venue),
		BestBuyPrice:     o.BestBuy.Price,
		BestSellPlatform: string(o.BestSell.Venue),
		BestSellPrice:    o.BestSell.Price,

		Spread:          o.Spread,
		SpreadPercent:   o.SpreadPercent,
		ProfitPotential: o.ProfitPotential,
		Confidence:      string(o.Confidence),
		MatchScore:      o.MatchScore,

		FeasibilityScore:  o.FeasibilityScore,
		FeasibilityLabel:  string(o.FeasibilityLabel),
		MinSideVolume:     o.MinSideVolume,
		EstimatedSlippage: o.EstimatedSlippage,

		StrategySummary: o.StrategySummary,
		StrategySteps:   o.StrategySteps,
	}
	for _, v := range o.Venues() {
		m := o.Members[v]
		dto.Platforms = append(dto.Platforms, string(v))
		dto.MarketIDs[string(v)] = m.ExternalID
		dto.Volumes[string(v)] = m.VolumeTotal
		if m.YesPrice != nil {
			dto.Prices[string(v)] = *m.YesPrice
		}
	}
	if dto.StrategySteps == nil {
		dto.StrategySteps = []string{}
	}
	return dto
}

func toStatsDTO(s domain.SnapshotStats) statsDTO {
	return statsDTO{
		TotalOpportunities:   s.TotalOpportunities,
		AvgSpread:            s.AvgSpread,
		TotalProfitPotential: s.TotalProfitPotential,
		MarketsScanned:       s.MarketsScanned,
		PlatformPairs:        s.PlatformPairs,
	}
}
