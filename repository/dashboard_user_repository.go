package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// DashboardUserRepository implements the DashboardUserRepository interface
type DashboardUserRepository struct {
	q queryable
}

// NewDashboardUserRepository creates a new dashboard user repository
func NewDashboardUserRepository(db *database.DB) *DashboardUserRepository {
	return &DashboardUserRepository{q: db.Pool}
}

// newDashboardUserRepositoryWithTx creates a new dashboard user repository with a transaction
func newDashboardUserRepositoryWithTx(tx queryable) *DashboardUserRepository {
	return &DashboardUserRepository{q: tx}
}

func scanDashboardUser(row pgx.Row) (*models.DashboardUser, error) {
	var user models.DashboardUser
	var managedJSON []byte

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsDiscordUser,
		&user.DiscordUserID,
		&managedJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(managedJSON) > 0 {
		if err := json.Unmarshal(managedJSON, &user.ManagedGuildIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal managed guild IDs: %w", err)
		}
	}

	return &user, nil
}

// GetByUsername retrieves a dashboard user by username
func (r *DashboardUserRepository) GetByUsername(ctx context.Context, username string) (*models.DashboardUser, error) {
	query := `
		SELECT id, username, password_hash, is_discord_user, discord_user_id, managed_guild_ids, created_at, updated_at
		FROM dashboard_users
		WHERE username = $1
	`

	user, err := scanDashboardUser(r.q.QueryRow(ctx, query, username))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard user %q: %w", username, err)
	}

	return user, nil
}

// GetByDiscordUserID retrieves a dashboard user by their linked Discord account
func (r *DashboardUserRepository) GetByDiscordUserID(ctx context.Context, discordUserID int64) (*models.DashboardUser, error) {
	query := `
		SELECT id, username, password_hash, is_discord_user, discord_user_id, managed_guild_ids, created_at, updated_at
		FROM dashboard_users
		WHERE discord_user_id = $1
	`

	user, err := scanDashboardUser(r.q.QueryRow(ctx, query, discordUserID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard user for discord ID %d: %w", discordUserID, err)
	}

	return user, nil
}

// UpsertLocal creates or updates a password-authenticated dashboard user
func (r *DashboardUserRepository) UpsertLocal(ctx context.Context, username, passwordHash string) (*models.DashboardUser, error) {
	query := `
		INSERT INTO dashboard_users (username, password_hash, is_discord_user)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = NOW()
		RETURNING id, username, password_hash, is_discord_user, discord_user_id, managed_guild_ids, created_at, updated_at
	`

	user, err := scanDashboardUser(r.q.QueryRow(ctx, query, username, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert dashboard user %q: %w", username, err)
	}

	return user, nil
}

// UpsertDiscord creates or updates an OAuth-authenticated dashboard user and
// replaces their managed guild set
func (r *DashboardUserRepository) UpsertDiscord(ctx context.Context, username string, discordUserID int64, managedGuildIDs []int64) (*models.DashboardUser, error) {
	managedJSON, err := json.Marshal(managedGuildIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal managed guild IDs: %w", err)
	}
	if managedGuildIDs == nil {
		managedJSON = []byte("[]")
	}

	query := `
		INSERT INTO dashboard_users (username, is_discord_user, discord_user_id, managed_guild_ids)
		VALUES ($1, TRUE, $2, $3)
		ON CONFLICT (discord_user_id) DO UPDATE SET
			username = EXCLUDED.username,
			managed_guild_ids = EXCLUDED.managed_guild_ids,
			updated_at = NOW()
		RETURNING id, username, password_hash, is_discord_user, discord_user_id, managed_guild_ids, created_at, updated_at
	`

	user, err := scanDashboardUser(r.q.QueryRow(ctx, query, username, discordUserID, managedJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert discord dashboard user %d: %w", discordUserID, err)
	}

	return user, nil
}
