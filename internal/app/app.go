// Package app wires the arbitrage engine together: venue feeds, the
// clustering grouper, the recompute loop, the alert evaluator, notifications,
// and the HTTP/WebSocket server. It owns startup order and shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/predictarb/predictarb/internal/alert"
	"github.com/predictarb/predictarb/internal/config"
	"github.com/predictarb/predictarb/internal/engine"
	"github.com/predictarb/predictarb/internal/match"
	"github.com/predictarb/predictarb/internal/server"
	"github.com/predictarb/predictarb/internal/server/handler"
	"github.com/predictarb/predictarb/internal/server/ws"
	"github.com/predictarb/predictarb/internal/snapshot"
	"github.com/predictarb/predictarb/internal/venue"
	"github.com/predictarb/predictarb/internal/venue/kalshi"
	"github.com/predictarb/predictarb/internal/venue/limitless"
	"github.com/predictarb/predictarb/internal/venue/opiniontrade"
	"github.com/predictarb/predictarb/internal/venue/polymarket"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the engine goroutines, and blocks until
// the context is cancelled or a subsystem fails. Context cancellation is a
// clean shutdown, not an error.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	feeds := a.buildFeeds()
	scanner := venue.NewScanner(feeds, deps.RecordCache, a.logger)

	grouper := match.NewGrouper(match.Config{
		Threshold:   a.cfg.Engine.MatchThreshold,
		MinVenues:   a.cfg.Engine.MinVenues,
		BlockWindow: a.cfg.Engine.BlockWindow.Duration,
	}, a.logger)

	store := snapshot.NewStore()

	recomputer := engine.New(engine.Config{
		Interval:      a.cfg.Engine.Interval.Duration,
		CycleTimeout:  a.cfg.Engine.CycleTimeout.Duration,
		ExposureShare: a.cfg.Engine.ExposureShare,
	}, scanner, grouper, store, a.logger)
	if deps.HistoryStore != nil {
		recomputer.WithHistory(deps.HistoryStore)
	}
	if deps.Archiver != nil {
		recomputer.WithArchiver(deps.Archiver)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return recomputer.Run(ctx)
	})

	// Alert evaluation needs Postgres for the definitions. Without it the
	// evaluator is skipped entirely rather than failing startup.
	if a.cfg.Alerts.Enabled && deps.AlertStore != nil {
		cooldown := deps.Cooldown
		if cooldown == nil {
			cooldown = alert.NewMemoryCooldown()
		}
		eval := alert.NewEvaluator(deps.AlertStore, cooldown, deps.Notifier,
			a.cfg.Alerts.CooldownTTL.Duration, a.logger)
		snapshots := recomputer.Subscribe()
		g.Go(func() error {
			return eval.Run(ctx, snapshots)
		})
	} else if a.cfg.Alerts.Enabled {
		a.logger.WarnContext(ctx, "alerts enabled but postgres is not, skipping alert evaluator")
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, store, recomputer)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// buildFeeds constructs a client for every enabled venue.
func (a *App) buildFeeds() []venue.Feed {
	var feeds []venue.Feed
	if v := a.cfg.Venues.Polymarket; v.Enabled {
		feeds = append(feeds, polymarket.New(v.BaseURL, v.RequestsPerSecond))
	}
	if v := a.cfg.Venues.Kalshi; v.Enabled {
		feeds = append(feeds, kalshi.New(v.BaseURL, v.APIKey, v.RequestsPerSecond))
	}
	if v := a.cfg.Venues.Limitless; v.Enabled {
		feeds = append(feeds, limitless.New(v.BaseURL, v.RequestsPerSecond))
	}
	if v := a.cfg.Venues.OpinionTrade; v.Enabled {
		feeds = append(feeds, opiniontrade.New(v.BaseURL, v.APIKey, v.RequestsPerSecond))
	}
	return feeds
}

// startHTTPServer registers the handlers, wires the WebSocket hub to the
// recomputer's snapshot stream, and starts the server plus its shutdown
// watcher on the group.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	store *snapshot.Store,
	recomputer *engine.Recomputer,
) {
	opps := handler.NewOpportunityHandler(store, a.logger)
	if deps.HistoryStore != nil {
		opps.WithHistory(deps.HistoryStore)
	}

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(store, a.logger),
		Opportunities: opps,
	}
	if deps.AlertStore != nil {
		handlers.Alerts = handler.NewAlertHandler(deps.AlertStore, a.logger)
	}

	hub := ws.NewHub(a.logger)
	snapshots := recomputer.Subscribe()
	g.Go(func() error {
		return hub.Run(ctx, snapshots)
	})

	srv := server.New(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		APIKey:       a.cfg.Server.APIKey,
		RateLimitRPS: a.cfg.Server.RateLimitRPS,
		RateBurst:    a.cfg.Server.RateBurst,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
		)
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
