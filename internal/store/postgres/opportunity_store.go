package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictarb/predictarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityHistoryStore: an append-only
// log of every published opportunity, one batch insert per snapshot.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// InsertSnapshot appends every opportunity in the snapshot. The batch goes
// through a single round trip; an empty snapshot inserts nothing.
func (s *OpportunityStore) InsertSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Opportunities) == 0 {
		return nil
	}

	const query = `
		INSERT INTO opportunity_history
			(snapshot_version, computed_at, fingerprint, title, platforms,
			 spread_percent, profit_potential, match_score, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for i := range snap.Opportunities {
		opp := &snap.Opportunities[i]

		payload, err := json.Marshal(opp)
		if err != nil {
			return fmt.Errorf("postgres: marshal opportunity %s: %w", opp.ID, err)
		}
		platforms := make([]string, 0, len(opp.Members))
		for _, v := range opp.Venues() {
			platforms = append(platforms, string(v))
		}

		batch.Queue(query,
			int64(snap.Version), snap.ComputedAt, opp.Fingerprint(), opp.Title,
			platforms, opp.SpreadPercent, opp.ProfitPotential, opp.MatchScore,
			payload,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snap.Opportunities {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert snapshot %d: %w", snap.Version, err)
		}
	}
	return nil
}

// ListRecent returns the most recently recorded opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT payload FROM opportunity_history
		ORDER BY id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		var opp domain.Opportunity
		if err := json.Unmarshal(payload, &opp); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}

var _ domain.OpportunityHistoryStore = (*OpportunityStore)(nil)
