package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictarb/predictarb/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL. Conditions are
// stored as JSONB, channels as a text array.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates an AlertStore backed by the given connection pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Create inserts a new alert definition.
func (s *AlertStore) Create(ctx context.Context, def domain.AlertDefinition) error {
	conditions, err := json.Marshal(def.Conditions)
	if err != nil {
		return fmt.Errorf("postgres: marshal alert conditions: %w", err)
	}

	channels := make([]string, len(def.Channels))
	for i, ch := range def.Channels {
		channels[i] = string(ch)
	}

	const query = `
		INSERT INTO alerts (id, owner_contact, name, alert_type, conditions, channels, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.pool.Exec(ctx, query,
		def.ID, def.OwnerContact, def.Name, string(def.Type),
		conditions, channels, def.Active, def.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create alert %s: %w", def.ID, err)
	}
	return nil
}

// Delete removes an alert by ID. It returns domain.ErrNotFound when no such
// alert exists.
func (s *AlertStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete alert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns every active alert of the given type.
func (s *AlertStore) ListActive(ctx context.Context, alertType domain.AlertType) ([]domain.AlertDefinition, error) {
	const query = `
		SELECT id, owner_contact, name, alert_type, conditions, channels, active,
		       trigger_count, last_triggered_at, created_at
		FROM alerts
		WHERE active AND alert_type = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, string(alertType))
	if err != nil {
		return nil, fmt.Errorf("postgres: list active alerts: %w", err)
	}
	defer rows.Close()

	var defs []domain.AlertDefinition
	for rows.Next() {
		def, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list active alerts rows: %w", err)
	}
	return defs, nil
}

// Get returns one alert by ID, or domain.ErrNotFound.
func (s *AlertStore) Get(ctx context.Context, id string) (domain.AlertDefinition, error) {
	const query = `
		SELECT id, owner_contact, name, alert_type, conditions, channels, active,
		       trigger_count, last_triggered_at, created_at
		FROM alerts
		WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	def, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AlertDefinition{}, domain.ErrNotFound
		}
		return domain.AlertDefinition{}, err
	}
	return def, nil
}

// RecordTrigger bumps the trigger counter and timestamp after a dispatch.
func (s *AlertStore) RecordTrigger(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE alerts
		SET trigger_count = trigger_count + 1, last_triggered_at = $2
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("postgres: record trigger %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAlert(row pgx.Row) (domain.AlertDefinition, error) {
	var (
		def        domain.AlertDefinition
		alertType  string
		conditions []byte
		channels   []string
	)
	err := row.Scan(
		&def.ID, &def.OwnerContact, &def.Name, &alertType, &conditions,
		&channels, &def.Active, &def.TriggerCount, &def.LastTriggeredAt,
		&def.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AlertDefinition{}, err
		}
		return domain.AlertDefinition{}, fmt.Errorf("postgres: scan alert: %w", err)
	}

	def.Type = domain.AlertType(alertType)
	if err := json.Unmarshal(conditions, &def.Conditions); err != nil {
		return domain.AlertDefinition{}, fmt.Errorf("postgres: unmarshal alert conditions %s: %w", def.ID, err)
	}
	def.Channels = make([]domain.AlertChannel, len(channels))
	for i, ch := range channels {
		def.Channels[i] = domain.AlertChannel(ch)
	}
	return def, nil
}

var _ domain.AlertStore = (*AlertStore)(nil)
