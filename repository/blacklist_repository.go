package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// BlacklistRepository implements the BlacklistRepository interface
type BlacklistRepository struct {
	q queryable
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *database.DB) *BlacklistRepository {
	return &BlacklistRepository{q: db.Pool}
}

// newBlacklistRepositoryWithTx creates a new blacklist repository with a transaction
func newBlacklistRepositoryWithTx(tx queryable) *BlacklistRepository {
	return &BlacklistRepository{q: tx}
}

// Add puts a user on the blacklist, updating the reason if already present
func (r *BlacklistRepository) Add(ctx context.Context, user *models.BlacklistedUser) error {
	query := `
		INSERT INTO blacklisted_users (discord_id, reason, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (discord_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			added_by = EXCLUDED.added_by
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		user.DiscordID,
		user.Reason,
		user.AddedBy,
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to blacklist user %d: %w", user.DiscordID, err)
	}

	return nil
}

// Remove takes a user off the blacklist and reports whether they were on it
func (r *BlacklistRepository) Remove(ctx context.Context, discordID int64) (bool, error) {
	query := `
		DELETE FROM blacklisted_users
		WHERE discord_id = $1
	`

	result, err := r.q.Exec(ctx, query, discordID)
	if err != nil {
		return false, fmt.Errorf("failed to remove user %d from blacklist: %w", discordID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Get returns a blacklist row for a user, or nil
func (r *BlacklistRepository) Get(ctx context.Context, discordID int64) (*models.BlacklistedUser, error) {
	query := `
		SELECT discord_id, reason, added_by, created_at
		FROM blacklisted_users
		WHERE discord_id = $1
	`

	var user models.BlacklistedUser
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&user.DiscordID,
		&user.Reason,
		&user.AddedBy,
		&user.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist entry for user %d: %w", discordID, err)
	}

	return &user, nil
}

// GetAll returns the full blacklist
func (r *BlacklistRepository) GetAll(ctx context.Context) ([]*models.BlacklistedUser, error) {
	query := `
		SELECT discord_id, reason, added_by, created_at
		FROM blacklisted_users
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist: %w", err)
	}
	defer rows.Close()

	var users []*models.BlacklistedUser
	for rows.Next() {
		var user models.BlacklistedUser
		err := rows.Scan(
			&user.DiscordID,
			&user.Reason,
			&user.AddedBy,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blacklist: %w", err)
	}

	return users, nil
}
