package repository

import (
	"context"
	"fmt"

	"justbot/database"
	"justbot/models"
)

// WarningRepository implements the WarningRepository interface
type WarningRepository struct {
	q queryable
}

// NewWarningRepository creates a new warning repository
func NewWarningRepository(db *database.DB) *WarningRepository {
	return &WarningRepository{q: db.Pool}
}

// newWarningRepositoryWithTx creates a new warning repository with a transaction
func newWarningRepositoryWithTx(tx queryable) *WarningRepository {
	return &WarningRepository{q: tx}
}

// Create inserts a new warning
func (r *WarningRepository) Create(ctx context.Context, warning *models.Warning) error {
	query := `
		INSERT INTO warnings (guild_id, discord_id, username, moderator_id, moderator_name, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		warning.GuildID,
		warning.DiscordID,
		warning.Username,
		warning.ModeratorID,
		warning.ModeratorName,
		warning.Reason,
	).Scan(&warning.ID, &warning.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create warning for user %d: %w", warning.DiscordID, err)
	}

	return nil
}

// GetByUser returns a user's warnings in a guild, oldest first
func (r *WarningRepository) GetByUser(ctx context.Context, guildID, discordID int64) ([]*models.Warning, error) {
	query := `
		SELECT id, guild_id, discord_id, username, moderator_id, moderator_name, reason, created_at
		FROM warnings
		WHERE guild_id = $1 AND discord_id = $2
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, guildID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings for user %d: %w", discordID, err)
	}
	defer rows.Close()

	var warnings []*models.Warning
	for rows.Next() {
		var warning models.Warning
		err := rows.Scan(
			&warning.ID,
			&warning.GuildID,
			&warning.DiscordID,
			&warning.Username,
			&warning.ModeratorID,
			&warning.ModeratorName,
			&warning.Reason,
			&warning.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, &warning)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate warnings: %w", err)
	}

	return warnings, nil
}

// CountByUser returns how many warnings a user holds in a guild
func (r *WarningRepository) CountByUser(ctx context.Context, guildID, discordID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM warnings
		WHERE guild_id = $1 AND discord_id = $2
	`

	var count int
	if err := r.q.QueryRow(ctx, query, guildID, discordID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warnings for user %d: %w", discordID, err)
	}

	return count, nil
}

// Delete removes a single warning by ID
func (r *WarningRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM warnings
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete warning %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("warning %d not found", id)
	}

	return nil
}

// DeleteAllByUser removes all of a user's warnings in a guild and returns
// how many were deleted
func (r *WarningRepository) DeleteAllByUser(ctx context.Context, guildID, discordID int64) (int64, error) {
	query := `
		DELETE FROM warnings
		WHERE guild_id = $1 AND discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, guildID, discordID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete warnings for user %d: %w", discordID, err)
	}

	return result.RowsAffected(), nil
}

// CountByGuild returns the total warning count for a guild
func (r *WarningRepository) CountByGuild(ctx context.Context, guildID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM warnings
		WHERE guild_id = $1
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, guildID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warnings for guild %d: %w", guildID, err)
	}

	return count, nil
}

// GetRecentByGuild returns the newest warnings in a guild
func (r *WarningRepository) GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.Warning, error) {
	query := `
		SELECT id, guild_id, discord_id, username, moderator_id, moderator_name, reason, created_at
		FROM warnings
		WHERE guild_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent warnings for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var warnings []*models.Warning
	for rows.Next() {
		var warning models.Warning
		err := rows.Scan(
			&warning.ID,
			&warning.GuildID,
			&warning.DiscordID,
			&warning.Username,
			&warning.ModeratorID,
			&warning.ModeratorName,
			&warning.Reason,
			&warning.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, &warning)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate warnings: %w", err)
	}

	return warnings, nil
}
