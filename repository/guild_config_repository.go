package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// GuildConfigRepository implements the GuildConfigRepository interface
type GuildConfigRepository struct {
	q queryable
}

// NewGuildConfigRepository creates a new guild config repository
func NewGuildConfigRepository(db *database.DB) *GuildConfigRepository {
	return &GuildConfigRepository{q: db.Pool}
}

// newGuildConfigRepositoryWithTx creates a new guild config repository with a transaction
func newGuildConfigRepositoryWithTx(tx queryable) *GuildConfigRepository {
	return &GuildConfigRepository{q: tx}
}

const guildConfigColumns = `
	guild_id, guild_name,
	welcome_enabled, welcome_text, leave_enabled, leave_text, log_channel_id,
	vehicle_registration_fee, forbidden_vehicles, registration_channel_id,
	vehicle_admin_channel_id, vehicle_admin_role_id, approved_vehicle_channel_id,
	bank_channel_id, loan_enabled, max_loan_amount, loan_interest_rate,
	auto_kick_warn_count, mute_role_id,
	invite_filter_enabled, spam_filter_enabled, spam_threshold, spam_window_seconds,
	ticket_open_channel_id, ticket_category_id, ticket_staff_role_id,
	created_at, updated_at`

func scanGuildConfig(row pgx.Row) (*models.GuildConfig, error) {
	var config models.GuildConfig
	var forbiddenJSON []byte

	err := row.Scan(
		&config.GuildID,
		&config.GuildName,
		&config.WelcomeEnabled,
		&config.WelcomeText,
		&config.LeaveEnabled,
		&config.LeaveText,
		&config.LogChannelID,
		&config.VehicleRegistrationFee,
		&forbiddenJSON,
		&config.RegistrationChannelID,
		&config.VehicleAdminChannelID,
		&config.VehicleAdminRoleID,
		&config.ApprovedVehicleChannelID,
		&config.BankChannelID,
		&config.LoanEnabled,
		&config.MaxLoanAmount,
		&config.LoanInterestRate,
		&config.AutoKickWarnCount,
		&config.MuteRoleID,
		&config.InviteFilterEnabled,
		&config.SpamFilterEnabled,
		&config.SpamThreshold,
		&config.SpamWindowSeconds,
		&config.TicketOpenChannelID,
		&config.TicketCategoryID,
		&config.TicketStaffRoleID,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(forbiddenJSON) > 0 {
		if err := json.Unmarshal(forbiddenJSON, &config.ForbiddenVehicles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal forbidden vehicles: %w", err)
		}
	}

	return &config, nil
}

// Get retrieves a guild's configuration
func (r *GuildConfigRepository) Get(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	query := `SELECT ` + guildConfigColumns + ` FROM guild_configs WHERE guild_id = $1`

	config, err := scanGuildConfig(r.q.QueryRow(ctx, query, guildID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config for guild %d: %w", guildID, err)
	}

	return config, nil
}

// EnsureExists inserts a default config row for a guild if it has none
func (r *GuildConfigRepository) EnsureExists(ctx context.Context, guildID int64, guildName string) error {
	query := `
		INSERT INTO guild_configs (guild_id, guild_name)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, guildID, guildName); err != nil {
		return fmt.Errorf("failed to ensure config for guild %d: %w", guildID, err)
	}

	return nil
}

// Upsert writes the full configuration row for a guild
func (r *GuildConfigRepository) Upsert(ctx context.Context, config *models.GuildConfig) error {
	forbiddenJSON, err := json.Marshal(config.ForbiddenVehicles)
	if err != nil {
		return fmt.Errorf("failed to marshal forbidden vehicles: %w", err)
	}
	if config.ForbiddenVehicles == nil {
		forbiddenJSON = []byte("[]")
	}

	query := `
		INSERT INTO guild_configs (
			guild_id, guild_name,
			welcome_enabled, welcome_text, leave_enabled, leave_text, log_channel_id,
			vehicle_registration_fee, forbidden_vehicles, registration_channel_id,
			vehicle_admin_channel_id, vehicle_admin_role_id, approved_vehicle_channel_id,
			bank_channel_id, loan_enabled, max_loan_amount, loan_interest_rate,
			auto_kick_warn_count, mute_role_id,
			invite_filter_enabled, spam_filter_enabled, spam_threshold, spam_window_seconds,
			ticket_open_channel_id, ticket_category_id, ticket_staff_role_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT (guild_id) DO UPDATE SET
			guild_name = EXCLUDED.guild_name,
			welcome_enabled = EXCLUDED.welcome_enabled,
			welcome_text = EXCLUDED.welcome_text,
			leave_enabled = EXCLUDED.leave_enabled,
			leave_text = EXCLUDED.leave_text,
			log_channel_id = EXCLUDED.log_channel_id,
			vehicle_registration_fee = EXCLUDED.vehicle_registration_fee,
			forbidden_vehicles = EXCLUDED.forbidden_vehicles,
			registration_channel_id = EXCLUDED.registration_channel_id,
			vehicle_admin_channel_id = EXCLUDED.vehicle_admin_channel_id,
			vehicle_admin_role_id = EXCLUDED.vehicle_admin_role_id,
			approved_vehicle_channel_id = EXCLUDED.approved_vehicle_channel_id,
			bank_channel_id = EXCLUDED.bank_channel_id,
			loan_enabled = EXCLUDED.loan_enabled,
			max_loan_amount = EXCLUDED.max_loan_amount,
			loan_interest_rate = EXCLUDED.loan_interest_rate,
			auto_kick_warn_count = EXCLUDED.auto_kick_warn_count,
			mute_role_id = EXCLUDED.mute_role_id,
			invite_filter_enabled = EXCLUDED.invite_filter_enabled,
			spam_filter_enabled = EXCLUDED.spam_filter_enabled,
			spam_threshold = EXCLUDED.spam_threshold,
			spam_window_seconds = EXCLUDED.spam_window_seconds,
			ticket_open_channel_id = EXCLUDED.ticket_open_channel_id,
			ticket_category_id = EXCLUDED.ticket_category_id,
			ticket_staff_role_id = EXCLUDED.ticket_staff_role_id,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		config.GuildID,
		config.GuildName,
		config.WelcomeEnabled,
		config.WelcomeText,
		config.LeaveEnabled,
		config.LeaveText,
		config.LogChannelID,
		config.VehicleRegistrationFee,
		forbiddenJSON,
		config.RegistrationChannelID,
		config.VehicleAdminChannelID,
		config.VehicleAdminRoleID,
		config.ApprovedVehicleChannelID,
		config.BankChannelID,
		config.LoanEnabled,
		config.MaxLoanAmount,
		config.LoanInterestRate,
		config.AutoKickWarnCount,
		config.MuteRoleID,
		config.InviteFilterEnabled,
		config.SpamFilterEnabled,
		config.SpamThreshold,
		config.SpamWindowSeconds,
		config.TicketOpenChannelID,
		config.TicketCategoryID,
		config.TicketStaffRoleID,
	).Scan(&config.CreatedAt, &config.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert config for guild %d: %w", config.GuildID, err)
	}

	return nil
}

// GetAll returns every guild's configuration
func (r *GuildConfigRepository) GetAll(ctx context.Context) ([]*models.GuildConfig, error) {
	query := `SELECT ` + guildConfigColumns + ` FROM guild_configs ORDER BY guild_id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all guild configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.GuildConfig
	for rows.Next() {
		config, err := scanGuildConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild config: %w", err)
		}
		configs = append(configs, config)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild configs: %w", err)
	}

	return configs, nil
}
