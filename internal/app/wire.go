package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/predictarb/predictarb/internal/blob/s3"
	"github.com/predictarb/predictarb/internal/cache/redis"
	"github.com/predictarb/predictarb/internal/config"
	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/notify"
	"github.com/predictarb/predictarb/internal/store/postgres"
)

// Dependencies bundles the optional infrastructure the engine can run with.
// Every field may be nil: the engine degrades feature by feature rather than
// refusing to start. Wire constructs them from the configuration and the
// returned cleanup function tears them down in reverse order.
type Dependencies struct {
	// Postgres-backed. Nil without Postgres; alert CRUD and the history
	// endpoint are then disabled.
	AlertStore   domain.AlertStore
	HistoryStore domain.OpportunityHistoryStore

	// Redis-backed. Nil without Redis; the evaluator falls back to an
	// in-process cooldown and venue outages cannot be bridged from cache.
	Cooldown    domain.CooldownGuard
	RecordCache domain.RecordCache

	// S3-backed. Nil without S3; snapshots are not archived.
	Archiver domain.SnapshotArchiver

	// Notification fan-out. Always present, possibly with zero senders.
	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency implementations enabled by cfg and
// returns them with a cleanup function to be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.AlertStore = postgres.NewAlertStore(pool)
		deps.HistoryStore = postgres.NewOpportunityStore(pool)
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cooldown = redis.NewCooldown(redisClient)
		deps.RecordCache = redis.NewRecordCache(redisClient)
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	var senders []notify.Sender
	if cfg.Notify.SMTP.Host != "" && len(cfg.Notify.SMTP.To) > 0 {
		senders = append(senders, notify.NewEmailSender(notify.EmailConfig{
			Host:     cfg.Notify.SMTP.Host,
			Port:     cfg.Notify.SMTP.Port,
			From:     cfg.Notify.SMTP.From,
			To:       cfg.Notify.SMTP.To,
			Username: cfg.Notify.SMTP.Username,
			Password: cfg.Notify.SMTP.Password,
		}))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}
