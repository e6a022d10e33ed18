package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// VehicleRepository implements the VehicleRepository interface
type VehicleRepository struct {
	q queryable
}

// NewVehicleRepository creates a new vehicle registration repository
func NewVehicleRepository(db *database.DB) *VehicleRepository {
	return &VehicleRepository{q: db.Pool}
}

// newVehicleRepositoryWithTx creates a new vehicle registration repository with a transaction
func newVehicleRepositoryWithTx(tx queryable) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

// Create inserts a new pending registration
func (r *VehicleRepository) Create(ctx context.Context, reg *models.VehicleRegistration) error {
	query := `
		INSERT INTO vehicle_registrations (guild_id, discord_id, username, vehicle_name, fee, status, review_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, requested_at
	`

	err := r.q.QueryRow(ctx, query,
		reg.GuildID,
		reg.DiscordID,
		reg.Username,
		reg.VehicleName,
		reg.Fee,
		reg.Status,
		reg.ReviewBy,
	).Scan(&reg.ID, &reg.RequestedAt)

	if err != nil {
		return fmt.Errorf("failed to create vehicle registration for user %d: %w", reg.DiscordID, err)
	}

	return nil
}

// GetByID retrieves a registration by its ID
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.VehicleRegistration, error) {
	query := `
		SELECT id, guild_id, discord_id, username, vehicle_name, fee, status,
		       reviewer_id, reject_reason, message_id, requested_at, review_by, decided_at
		FROM vehicle_registrations
		WHERE id = $1
	`

	var reg models.VehicleRegistration
	err := r.q.QueryRow(ctx, query, id).Scan(
		&reg.ID,
		&reg.GuildID,
		&reg.DiscordID,
		&reg.Username,
		&reg.VehicleName,
		&reg.Fee,
		&reg.Status,
		&reg.ReviewerID,
		&reg.RejectReason,
		&reg.MessageID,
		&reg.RequestedAt,
		&reg.ReviewBy,
		&reg.DecidedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle registration %d: %w", id, err)
	}

	return &reg, nil
}

// SetMessageID stores the review-channel message posted for a registration
func (r *VehicleRepository) SetMessageID(ctx context.Context, id int64, messageID int64) error {
	query := `
		UPDATE vehicle_registrations
		SET message_id = $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, messageID, id)
	if err != nil {
		return fmt.Errorf("failed to set message ID for vehicle registration %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("vehicle registration %d not found", id)
	}

	return nil
}

// Transition moves a registration out of the pending state. The WHERE clause
// only matches pending rows, so a second decision on the same registration
// affects zero rows and the caller sees ok=false.
func (r *VehicleRepository) Transition(ctx context.Context, id int64, status models.VehicleStatus, reviewerID *int64, rejectReason *string) (bool, error) {
	query := `
		UPDATE vehicle_registrations
		SET status = $1, reviewer_id = $2, reject_reason = $3, decided_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.Exec(ctx, query, status, reviewerID, rejectReason, id, models.VehicleStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to transition vehicle registration %d to %s: %w", id, status, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetExpiredPending returns pending registrations whose review deadline has passed
func (r *VehicleRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.VehicleRegistration, error) {
	query := `
		SELECT id, guild_id, discord_id, username, vehicle_name, fee, status,
		       reviewer_id, reject_reason, message_id, requested_at, review_by, decided_at
		FROM vehicle_registrations
		WHERE status = $1 AND review_by <= $2
		ORDER BY review_by ASC
	`

	rows, err := r.q.Query(ctx, query, models.VehicleStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired pending registrations: %w", err)
	}
	defer rows.Close()

	return scanVehicleRegistrations(rows)
}

// CountPendingByGuild returns the number of pending registrations in a guild
func (r *VehicleRepository) CountPendingByGuild(ctx context.Context, guildID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM vehicle_registrations
		WHERE guild_id = $1 AND status = $2
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, guildID, models.VehicleStatusPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending registrations for guild %d: %w", guildID, err)
	}

	return count, nil
}

// GetByGuild returns the most recent registrations for a guild
func (r *VehicleRepository) GetByGuild(ctx context.Context, guildID int64, limit int) ([]*models.VehicleRegistration, error) {
	query := `
		SELECT id, guild_id, discord_id, username, vehicle_name, fee, status,
		       reviewer_id, reject_reason, message_id, requested_at, review_by, decided_at
		FROM vehicle_registrations
		WHERE guild_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle registrations for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	return scanVehicleRegistrations(rows)
}

// GetApprovedByUser returns a user's approved registrations in a guild
func (r *VehicleRepository) GetApprovedByUser(ctx context.Context, guildID, discordID int64) ([]*models.VehicleRegistration, error) {
	query := `
		SELECT id, guild_id, discord_id, username, vehicle_name, fee, status,
		       reviewer_id, reject_reason, message_id, requested_at, review_by, decided_at
		FROM vehicle_registrations
		WHERE guild_id = $1 AND discord_id = $2 AND status = $3
		ORDER BY decided_at ASC
	`

	rows, err := r.q.Query(ctx, query, guildID, discordID, models.VehicleStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved vehicles for user %d: %w", discordID, err)
	}
	defer rows.Close()

	return scanVehicleRegistrations(rows)
}

func scanVehicleRegistrations(rows pgx.Rows) ([]*models.VehicleRegistration, error) {
	var regs []*models.VehicleRegistration
	for rows.Next() {
		var reg models.VehicleRegistration
		err := rows.Scan(
			&reg.ID,
			&reg.GuildID,
			&reg.DiscordID,
			&reg.Username,
			&reg.VehicleName,
			&reg.Fee,
			&reg.Status,
			&reg.ReviewerID,
			&reg.RejectReason,
			&reg.MessageID,
			&reg.RequestedAt,
			&reg.ReviewBy,
			&reg.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle registration: %w", err)
		}
		regs = append(regs, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicle registrations: %w", err)
	}

	return regs, nil
}
