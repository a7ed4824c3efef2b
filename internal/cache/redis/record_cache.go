package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predictarb/predictarb/internal/domain"
)

// recordTTL bounds how long a stale fetch may bridge a venue outage. Older
// listings are worse than none: prices drift and markets close.
const recordTTL = 10 * time.Minute

// RecordCache implements domain.RecordCache using one JSON value per venue.
//
// Key schema:
//
//	records:{venue} - JSON array of the venue's last successful fetch
type RecordCache struct {
	rdb *redis.Client
}

// NewRecordCache creates a RecordCache backed by the given Client.
func NewRecordCache(c *Client) *RecordCache {
	return &RecordCache{rdb: c.rdb}
}

func recordKey(v domain.Venue) string { return "records:" + string(v) }

// SetRecords stores the venue's latest fetch, replacing any previous one.
func (rc *RecordCache) SetRecords(ctx context.Context, venue domain.Venue, records []domain.MarketRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis: marshal records %s: %w", venue, err)
	}
	if err := rc.rdb.Set(ctx, recordKey(venue), data, recordTTL).Err(); err != nil {
		return fmt.Errorf("redis: set records %s: %w", venue, err)
	}
	return nil
}

// GetRecords returns the venue's cached fetch, or domain.ErrNotFound when no
// unexpired fetch exists.
func (rc *RecordCache) GetRecords(ctx context.Context, venue domain.Venue) ([]domain.MarketRecord, error) {
	data, err := rc.rdb.Get(ctx, recordKey(venue)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get records %s: %w", venue, err)
	}

	var records []domain.MarketRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("redis: unmarshal records %s: %w", venue, err)
	}
	return records, nil
}

var _ domain.RecordCache = (*RecordCache)(nil)
