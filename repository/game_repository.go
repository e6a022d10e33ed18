package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"justbot/database"
	"justbot/models"
)

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game record repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game record repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Record inserts a played-game row
func (r *GameRepository) Record(ctx context.Context, record *models.GameRecord) error {
	paramsJSON, err := json.Marshal(record.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal game params: %w", err)
	}
	if record.Params == nil {
		paramsJSON = []byte("{}")
	}

	query := `
		INSERT INTO game_records (guild_id, discord_id, username, game_type, params, outcome)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		record.GuildID,
		record.DiscordID,
		record.Username,
		record.GameType,
		paramsJSON,
		record.Outcome,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record game for user %d: %w", record.DiscordID, err)
	}

	return nil
}

// GetRecentByGuild returns the newest game records for a guild
func (r *GameRepository) GetRecentByGuild(ctx context.Context, guildID int64, limit int) ([]*models.GameRecord, error) {
	query := `
		SELECT id, guild_id, discord_id, username, game_type, params, outcome, created_at
		FROM game_records
		WHERE guild_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game records for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var records []*models.GameRecord
	for rows.Next() {
		var record models.GameRecord
		var paramsJSON []byte

		err := rows.Scan(
			&record.ID,
			&record.GuildID,
			&record.DiscordID,
			&record.Username,
			&record.GameType,
			&paramsJSON,
			&record.Outcome,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game record: %w", err)
		}

		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &record.Params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal game params: %w", err)
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game records: %w", err)
	}

	return records, nil
}

// CountByGuild returns per-game-type play counts for a guild
func (r *GameRepository) CountByGuild(ctx context.Context, guildID int64) (map[models.GameType]int64, error) {
	query := `
		SELECT game_type, COUNT(*)
		FROM game_records
		WHERE guild_id = $1
		GROUP BY game_type
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to count game records for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	counts := make(map[models.GameType]int64)
	for rows.Next() {
		var gameType models.GameType
		var count int64
		if err := rows.Scan(&gameType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan game count: %w", err)
		}
		counts[gameType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game counts: %w", err)
	}

	return counts, nil
}
