// Package alert matches newly published snapshots against user-defined alert
// definitions and dispatches notifications for new matches.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/notify"
)

// defaultCooldownTTL is how long a given alert+opportunity pair stays muted
// after a trigger. An opportunity that persists across recompute cycles
// notifies once per window, not once per cycle.
const defaultCooldownTTL = 6 * time.Hour

// Evaluator scans each published snapshot against the active alert
// definitions. It runs asynchronously from both the recompute loop and the
// read path, and failures are isolated per alert.
type Evaluator struct {
	alerts   domain.AlertStore
	cooldown domain.CooldownGuard
	notifier *notify.Notifier
	ttl      time.Duration
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator. A zero cooldownTTL selects the default.
func NewEvaluator(
	alerts domain.AlertStore,
	cooldown domain.CooldownGuard,
	notifier *notify.Notifier,
	cooldownTTL time.Duration,
	logger *slog.Logger,
) *Evaluator {
	if cooldownTTL <= 0 {
		cooldownTTL = defaultCooldownTTL
	}
	return &Evaluator{
		alerts:   alerts,
		cooldown: cooldown,
		notifier: notifier,
		ttl:      cooldownTTL,
		logger:   logger.With(slog.String("component", "alert_evaluator")),
	}
}

// Run consumes published snapshots until ctx is done. Evaluation errors are
// logged, never fatal: the next snapshot gets a fresh evaluation.
func (e *Evaluator) Run(ctx context.Context, snapshots <-chan domain.Snapshot) error {
	e.logger.InfoContext(ctx, "alert evaluator starting", slog.Duration("cooldown", e.ttl))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("alert evaluator stopped")
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			e.Evaluate(ctx, snap)
		}
	}
}

// Evaluate matches one snapshot against all active arbitrage alerts.
func (e *Evaluator) Evaluate(ctx context.Context, snap domain.Snapshot) {
	defs, err := e.alerts.ListActive(ctx, domain.AlertTypeArbitrage)
	if err != nil {
		e.logger.ErrorContext(ctx, "list active alerts failed", slog.String("error", err.Error()))
		return
	}

	triggered := 0
	for _, def := range defs {
		triggered += e.evaluateAlert(ctx, def, snap)
	}
	if triggered > 0 {
		e.logger.InfoContext(ctx, "alerts triggered",
			slog.Uint64("snapshot_version", snap.Version),
			slog.Int("count", triggered),
		)
	}
}

// evaluateAlert processes one definition against the snapshot. Any failure is
// scoped to this alert and logged; remaining alerts still evaluate.
func (e *Evaluator) evaluateAlert(ctx context.Context, def domain.AlertDefinition, snap domain.Snapshot) int {
	triggered := 0
	for _, opp := range snap.Opportunities {
		if !def.Conditions.Matches(opp) {
			continue
		}

		key := cooldownKey(def.ID, opp)
		fresh, err := e.cooldown.Acquire(ctx, key, e.ttl)
		if err != nil {
			// When the cooldown state is unavailable, staying silent beats
			// re-notifying on every cycle.
			e.logger.WarnContext(ctx, "cooldown check failed, skipping trigger",
				slog.String("alert_id", def.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !fresh {
			continue
		}

		title, message := formatTrigger(def, opp)
		if err := e.notifier.Dispatch(ctx, def.Channels, title, message); err != nil {
			e.logger.ErrorContext(ctx, "alert dispatch failed",
				slog.String("alert_id", def.ID),
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
		if err := e.alerts.RecordTrigger(ctx, def.ID, time.Now().UTC()); err != nil {
			e.logger.ErrorContext(ctx, "record trigger failed",
				slog.String("alert_id", def.ID),
				slog.String("error", err.Error()),
			)
		}
		triggered++
	}
	return triggered
}

func cooldownKey(alertID string, opp domain.Opportunity) string {
	return "alert:cooldown:" + alertID + ":" + opp.Fingerprint()
}

// formatTrigger renders the notification content for one match.
func formatTrigger(def domain.AlertDefinition, opp domain.Opportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage alert: %s", def.Name)

	venues := make([]string, 0, len(opp.Members))
	for _, v := range opp.Venues() {
		venues = append(venues, string(v))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opp.Title)
	fmt.Fprintf(&b, "Venues: %s\n", strings.Join(venues, ", "))
	fmt.Fprintf(&b, "Spread: %.2f%% (buy %s @ %.1f¢, sell %s @ %.1f¢)\n",
		opp.SpreadPercent,
		opp.BestBuy.Venue, opp.BestBuy.Price*100,
		opp.BestSell.Venue, opp.BestSell.Price*100,
	)
	fmt.Fprintf(&b, "Match score: %.2f (%s), feasibility: %.0f (%s)\n",
		opp.MatchScore, opp.Confidence, opp.FeasibilityScore, opp.FeasibilityLabel)
	fmt.Fprintf(&b, "Strategy: %s\nFor: %s", opp.StrategySummary, def.OwnerContact)
	return title, b.String()
}
