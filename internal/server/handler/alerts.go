package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/predictarb/predictarb/internal/domain"
)

// AlertHandler serves alert CRUD. It is thin glue over the alert store; the
// evaluator reads the same store after every snapshot publish.
type AlertHandler struct {
	alerts domain.AlertStore
	logger *slog.Logger
}

// NewAlertHandler creates an AlertHandler with the given store and logger.
func NewAlertHandler(alerts domain.AlertStore, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

// createAlertRequest is the POST /api/alerts/ body.
type createAlertRequest struct {
	UserEmail  string `json:"user_email"`
	AlertType  string `json:"alert_type"`
	AlertName  string `json:"alert_name"`
	Conditions struct {
		MarketTitle   string   `json:"market_title"`
		Platforms     []string `json:"platforms"`
		MinSpread     float64  `json:"min_spread"`
		MinMatchScore float64  `json:"min_match_score"`
	} `json:"conditions"`
	EmailEnabled    bool `json:"email_enabled"`
	TelegramEnabled bool `json:"telegram_enabled"`
	DiscordEnabled  bool `json:"discord_enabled"`
}

// Create registers a new alert.
// POST /api/alerts/
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	def, err := req.toDefinition()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.alerts.Create(r.Context(), def); err != nil {
		logHandler(h.logger, "alerts").ErrorContext(r.Context(), "create alert failed",
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create alert")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
}

// Delete removes an alert by ID.
// DELETE /api/alerts/{id}
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "alert id must be a UUID")
		return
	}

	if err := h.alerts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		logHandler(h.logger, "alerts").ErrorContext(r.Context(), "delete alert failed",
			slog.String("alert_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to delete alert")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toDefinition validates the request and builds a domain definition with a
// fresh UUID.
func (r *createAlertRequest) toDefinition() (domain.AlertDefinition, error) {
	if r.AlertType != string(domain.AlertTypeArbitrage) {
		return domain.AlertDefinition{}, errors.New("alert_type must be \"arbitrage\"")
	}
	if _, err := mail.ParseAddress(r.UserEmail); err != nil {
		return domain.AlertDefinition{}, errors.New("user_email must be a valid email address")
	}
	if r.Conditions.MinSpread < 0 {
		return domain.AlertDefinition{}, errors.New("conditions.min_spread must be >= 0")
	}
	if r.Conditions.MinMatchScore < 0 || r.Conditions.MinMatchScore > 1 {
		return domain.AlertDefinition{}, errors.New("conditions.min_match_score must be in [0,1]")
	}

	platforms := make([]domain.Venue, 0, len(r.Conditions.Platforms))
	for _, p := range r.Conditions.Platforms {
		v := domain.Venue(p)
		if !v.Valid() {
			return domain.AlertDefinition{}, errors.New("conditions.platforms contains unknown venue " + p)
		}
		platforms = append(platforms, v)
	}

	var channels []domain.AlertChannel
	if r.EmailEnabled {
		channels = append(channels, domain.ChannelEmail)
	}
	if r.TelegramEnabled {
		channels = append(channels, domain.ChannelTelegram)
	}
	if r.DiscordEnabled {
		channels = append(channels, domain.ChannelDiscord)
	}
	if len(channels) == 0 {
		return domain.AlertDefinition{}, errors.New("at least one notification channel must be enabled")
	}

	return domain.AlertDefinition{
		ID:           uuid.New().String(),
		OwnerContact: r.UserEmail,
		Name:         r.AlertName,
		Type:         domain.AlertTypeArbitrage,
		Conditions: domain.ArbitrageConditions{
			MarketTitle:   r.Conditions.MarketTitle,
			Platforms:     platforms,
			MinSpread:     r.Conditions.MinSpread,
			MinMatchScore: r.Conditions.MinMatchScore,
		},
		Channels:  channels,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}
