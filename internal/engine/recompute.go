package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/match"
	"github.com/predictarb/predictarb/internal/snapshot"
)

// RecordSource supplies the full set of currently open listings across
// venues. Implemented by the venue scanner.
type RecordSource interface {
	Scan(ctx context.Context) ([]domain.MarketRecord, error)
}

// Config holds the recompute loop parameters.
type Config struct {
	// Interval between recompute cycles.
	Interval time.Duration
	// CycleTimeout bounds one cycle. A cycle that exceeds it is abandoned
	// without publishing; the previous snapshot stays live.
	CycleTimeout time.Duration
	// ExposureShare feeds the profit-potential model.
	ExposureShare float64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 90 * time.Second
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = c.Interval
	}
	return c
}

// Recomputer runs the periodic pipeline: scan venues, cluster listings,
// enrich clusters into opportunities, and publish the result as one immutable
// snapshot. Partial results are never visible to readers.
type Recomputer struct {
	cfg     Config
	source  RecordSource
	grouper *match.Grouper
	store   *snapshot.Store

	// Optional collaborators; nil disables them.
	history  domain.OpportunityHistoryStore
	archiver domain.SnapshotArchiver

	logger  *slog.Logger
	version atomic.Uint64

	mu   sync.Mutex
	subs []chan domain.Snapshot
}

// New creates a Recomputer publishing into the given snapshot store.
func New(cfg Config, source RecordSource, grouper *match.Grouper, store *snapshot.Store, logger *slog.Logger) *Recomputer {
	return &Recomputer{
		cfg:     cfg.withDefaults(),
		source:  source,
		grouper: grouper,
		store:   store,
		logger:  logger.With(slog.String("component", "recomputer")),
	}
}

// WithHistory attaches an append-only history store written after each publish.
func (r *Recomputer) WithHistory(h domain.OpportunityHistoryStore) *Recomputer {
	r.history = h
	return r
}

// WithArchiver attaches a snapshot archiver invoked after each publish.
func (r *Recomputer) WithArchiver(a domain.SnapshotArchiver) *Recomputer {
	r.archiver = a
	return r
}

// Subscribe returns a channel that receives each published snapshot. The
// channel is buffered; a slow subscriber is skipped past, never blocking the
// recompute loop, so subscribers must treat delivery as latest-wins.
func (r *Recomputer) Subscribe() <-chan domain.Snapshot {
	ch := make(chan domain.Snapshot, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

// Run executes one cycle immediately, then on every tick until ctx is done.
// Cycle errors are logged and the previous snapshot stays live; only ctx
// cancellation ends the loop.
func (r *Recomputer) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "recompute loop starting",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("cycle_timeout", r.cfg.CycleTimeout),
	)

	r.cycle(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("recompute loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Recomputer) cycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, r.cfg.CycleTimeout)
	defer cancel()

	start := time.Now()
	snap, err := r.RunCycle(cycleCtx)
	if err != nil {
		r.logger.ErrorContext(ctx, "recompute cycle failed, keeping previous snapshot",
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.InfoContext(ctx, "snapshot published",
		slog.Uint64("version", snap.Version),
		slog.Int("opportunities", len(snap.Opportunities)),
		slog.Int("markets_scanned", snap.Stats.MarketsScanned),
		slog.Duration("took", time.Since(start)),
	)
}

// RunCycle performs one full recompute and publishes the result. It returns
// without publishing when the scan fails or the context deadline is hit.
func (r *Recomputer) RunCycle(ctx context.Context) (domain.Snapshot, error) {
	records, err := r.source.Scan(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("engine: scan venues: %w", err)
	}

	clusters := r.grouper.Group(records)

	opportunities := make([]domain.Opportunity, 0, len(clusters))
	for _, c := range clusters {
		if opp, ok := r.enrich(c); ok {
			opportunities = append(opportunities, opp)
		}
	}

	// The deadline check before publish keeps an over-budget cycle from
	// replacing a consistent snapshot with a late one.
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("engine: cycle abandoned: %w", err)
	}

	snap := domain.Snapshot{
		Version:       r.version.Add(1),
		ComputedAt:    time.Now().UTC(),
		Opportunities: opportunities,
		Stats:         buildStats(opportunities, len(records)),
	}
	r.store.Publish(snap)
	r.fanOut(snap)
	r.afterPublish(ctx, snap)
	return snap, nil
}

// enrich turns one cluster into an Opportunity. Clusters with fewer than two
// priced members yield ok=false.
func (r *Recomputer) enrich(c match.Cluster) (domain.Opportunity, bool) {
	bestBuy, bestSell, ok := BestQuotes(c.Members)
	if !ok {
		return domain.Opportunity{}, false
	}

	members := make(map[domain.Venue]domain.MarketRecord, len(c.Members))
	var representative domain.MarketRecord
	for _, m := range c.Members {
		members[m.Venue] = m
		if m.VolumeTotal > representative.VolumeTotal || representative.Title == "" {
			representative = m
		}
	}

	spread := bestSell.Price - bestBuy.Price
	minSideVol := MinSideVolume(members, bestBuy, bestSell)
	slippage := EstimateSlippage(minSideVol)
	feasScore := FeasibilityScore(minSideVol, slippage)
	summary, steps := BuildStrategy(bestBuy, bestSell)

	return domain.Opportunity{
		ID:                uuid.NewString(),
		Title:             representative.Title,
		Members:           members,
		BestBuy:           bestBuy,
		BestSell:          bestSell,
		Spread:            spread,
		SpreadPercent:     SpreadPercent(bestBuy.Price, bestSell.Price),
		ProfitPotential:   ProfitPotential(spread, minSideVol, r.cfg.ExposureShare),
		MatchScore:        c.MatchScore,
		Confidence:        ClassifyConfidence(c.MatchScore),
		FeasibilityScore:  feasScore,
		FeasibilityLabel:  LabelFeasibility(feasScore),
		MinSideVolume:     minSideVol,
		EstimatedSlippage: slippage,
		StrategySummary:   summary,
		StrategySteps:     steps,
	}, true
}

// fanOut delivers the snapshot to subscribers without ever blocking: when a
// subscriber has not consumed the previous snapshot, it is replaced.
func (r *Recomputer) fanOut(snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// afterPublish runs the best-effort collaborators. Their failures are logged
// and never roll back the published snapshot.
func (r *Recomputer) afterPublish(ctx context.Context, snap domain.Snapshot) {
	if r.history != nil {
		if err := r.history.InsertSnapshot(ctx, snap); err != nil {
			r.logger.WarnContext(ctx, "history insert failed",
				slog.Uint64("version", snap.Version),
				slog.String("error", err.Error()),
			)
		}
	}
	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, snap); err != nil {
			r.logger.WarnContext(ctx, "snapshot archive failed",
				slog.Uint64("version", snap.Version),
				slog.String("error", err.Error()),
			)
		}
	}
}

func buildStats(opps []domain.Opportunity, marketsScanned int) domain.SnapshotStats {
	stats := domain.SnapshotStats{
		TotalOpportunities: len(opps),
		MarketsScanned:     marketsScanned,
	}
	pairs := make(map[[2]domain.Venue]struct{})
	for _, o := range opps {
		stats.AvgSpread += o.SpreadPercent
		stats.TotalProfitPotential += o.ProfitPotential
		pairs[[2]domain.Venue{o.BestBuy.Venue, o.BestSell.Venue}] = struct{}{}
	}
	if len(opps) > 0 {
		stats.AvgSpread /= float64(len(opps))
	}
	stats.PlatformPairs = len(pairs)
	return stats
}
