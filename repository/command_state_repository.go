package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// CommandStateRepository implements the CommandStateRepository interface
type CommandStateRepository struct {
	q queryable
}

// NewCommandStateRepository creates a new command state repository
func NewCommandStateRepository(db *database.DB) *CommandStateRepository {
	return &CommandStateRepository{q: db.Pool}
}

// newCommandStateRepositoryWithTx creates a new command state repository with a transaction
func newCommandStateRepositoryWithTx(tx queryable) *CommandStateRepository {
	return &CommandStateRepository{q: tx}
}

// IsEnabled reports whether a command is enabled in a guild. A missing row
// means enabled.
func (r *CommandStateRepository) IsEnabled(ctx context.Context, guildID int64, commandName string) (bool, error) {
	query := `
		SELECT enabled
		FROM command_states
		WHERE guild_id = $1 AND command_name = $2
	`

	var enabled bool
	err := r.q.QueryRow(ctx, query, guildID, commandName).Scan(&enabled)
	if err == pgx.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get command state for %q in guild %d: %w", commandName, guildID, err)
	}

	return enabled, nil
}

// SetEnabled stores a command's enable flag for a guild
func (r *CommandStateRepository) SetEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error {
	query := `
		INSERT INTO command_states (guild_id, command_name, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, command_name) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, commandName, enabled); err != nil {
		return fmt.Errorf("failed to set command state for %q in guild %d: %w", commandName, guildID, err)
	}

	return nil
}

// GetByGuild returns all stored command states for a guild
func (r *CommandStateRepository) GetByGuild(ctx context.Context, guildID int64) ([]*models.CommandState, error) {
	query := `
		SELECT guild_id, command_name, enabled, updated_at
		FROM command_states
		WHERE guild_id = $1
		ORDER BY command_name
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get command states for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var states []*models.CommandState
	for rows.Next() {
		var state models.CommandState
		err := rows.Scan(
			&state.GuildID,
			&state.CommandName,
			&state.Enabled,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command state: %w", err)
		}
		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate command states: %w", err)
	}

	return states, nil
}
