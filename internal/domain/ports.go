package domain

import (
	"context"
	"io"
	"time"
)

// AlertStore persists alert definitions and trigger bookkeeping.
type AlertStore interface {
	Create(ctx context.Context, def AlertDefinition) error
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context, alertType AlertType) ([]AlertDefinition, error)
	RecordTrigger(ctx context.Context, id string, at time.Time) error
}

// OpportunityHistoryStore keeps an append-only history of published
// opportunities for offline analysis.
type OpportunityHistoryStore interface {
	InsertSnapshot(ctx context.Context, snap Snapshot) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// RecordCache holds the last successful fetch per venue so a transient venue
// outage can be bridged with stale-but-available listings.
type RecordCache interface {
	SetRecords(ctx context.Context, venue Venue, records []MarketRecord) error
	GetRecords(ctx context.Context, venue Venue) ([]MarketRecord, error)
}

// CooldownGuard implements at-most-once-per-window acquisition. Acquire
// returns true when the key was free and is now held for ttl; false when the
// key is still cooling down.
type CooldownGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// SnapshotArchiver persists a published snapshot outside the process.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snap Snapshot) error
}
