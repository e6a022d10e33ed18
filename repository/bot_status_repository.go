package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// BotStatusRepository implements the BotStatusRepository interface
type BotStatusRepository struct {
	q queryable
}

// NewBotStatusRepository creates a new bot status repository
func NewBotStatusRepository(db *database.DB) *BotStatusRepository {
	return &BotStatusRepository{q: db.Pool}
}

// newBotStatusRepositoryWithTx creates a new bot status repository with a transaction
func newBotStatusRepositoryWithTx(tx queryable) *BotStatusRepository {
	return &BotStatusRepository{q: tx}
}

// Heartbeat records a liveness beat for a named bot process
func (r *BotStatusRepository) Heartbeat(ctx context.Context, name, status, message string) error {
	query := `
		INSERT INTO bot_status (name, status, message, last_heartbeat)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			last_heartbeat = NOW()
	`

	if _, err := r.q.Exec(ctx, query, name, status, message); err != nil {
		return fmt.Errorf("failed to record heartbeat for %q: %w", name, err)
	}

	return nil
}

// GetStatus returns the last recorded status for a named bot process, or nil
func (r *BotStatusRepository) GetStatus(ctx context.Context, name string) (*models.BotStatus, error) {
	query := `
		SELECT name, status, message, last_heartbeat
		FROM bot_status
		WHERE name = $1
	`

	var status models.BotStatus
	err := r.q.QueryRow(ctx, query, name).Scan(
		&status.Name,
		&status.Status,
		&status.Message,
		&status.LastHeartbeat,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status for %q: %w", name, err)
	}

	return &status, nil
}

// GetPresence returns the singleton presence settings row, or defaults if
// none has been stored
func (r *BotStatusRepository) GetPresence(ctx context.Context) (*models.PresenceSettings, error) {
	query := `
		SELECT status, activity_type, activity_name, updated_at
		FROM bot_presence_settings
		WHERE id = 1
	`

	var settings models.PresenceSettings
	err := r.q.QueryRow(ctx, query).Scan(
		&settings.Status,
		&settings.ActivityType,
		&settings.ActivityName,
		&settings.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return models.DefaultPresenceSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence settings: %w", err)
	}

	return &settings, nil
}

// SetPresence replaces the singleton presence settings row
func (r *BotStatusRepository) SetPresence(ctx context.Context, settings *models.PresenceSettings) error {
	query := `
		INSERT INTO bot_presence_settings (id, status, activity_type, activity_name, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			activity_type = EXCLUDED.activity_type,
			activity_name = EXCLUDED.activity_name,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, settings.Status, settings.ActivityType, settings.ActivityName); err != nil {
		return fmt.Errorf("failed to set presence settings: %w", err)
	}

	return nil
}
