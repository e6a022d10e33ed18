package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"justbot/database"
	"justbot/models"
)

// TicketRepository implements the TicketRepository interface
type TicketRepository struct {
	q queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepositoryWithTx creates a new ticket repository with a transaction
func newTicketRepositoryWithTx(tx queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// Create inserts a new open ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (guild_id, opener_id, username, channel_id, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, opened_at
	`

	err := r.q.QueryRow(ctx, query,
		ticket.GuildID,
		ticket.OpenerID,
		ticket.Username,
		ticket.ChannelID,
		ticket.Reason,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.OpenedAt)

	if err != nil {
		return fmt.Errorf("failed to create ticket for user %d: %w", ticket.OpenerID, err)
	}

	return nil
}

// GetOpenByOpener returns a user's open ticket in a guild, or nil
func (r *TicketRepository) GetOpenByOpener(ctx context.Context, guildID, openerID int64) (*models.Ticket, error) {
	query := `
		SELECT id, guild_id, opener_id, username, channel_id, reason, status, opened_at, closed_at, closed_by
		FROM tickets
		WHERE guild_id = $1 AND opener_id = $2 AND status = $3
	`

	var ticket models.Ticket
	err := r.q.QueryRow(ctx, query, guildID, openerID, models.TicketStatusOpen).Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.OpenerID,
		&ticket.Username,
		&ticket.ChannelID,
		&ticket.Reason,
		&ticket.Status,
		&ticket.OpenedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open ticket for user %d: %w", openerID, err)
	}

	return &ticket, nil
}

// GetOpenByChannel returns the open ticket bound to a channel, or nil
func (r *TicketRepository) GetOpenByChannel(ctx context.Context, channelID int64) (*models.Ticket, error) {
	query := `
		SELECT id, guild_id, opener_id, username, channel_id, reason, status, opened_at, closed_at, closed_by
		FROM tickets
		WHERE channel_id = $1 AND status = $2
	`

	var ticket models.Ticket
	err := r.q.QueryRow(ctx, query, channelID, models.TicketStatusOpen).Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.OpenerID,
		&ticket.Username,
		&ticket.ChannelID,
		&ticket.Reason,
		&ticket.Status,
		&ticket.OpenedAt,
		&ticket.ClosedAt,
		&ticket.ClosedBy,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open ticket for channel %d: %w", channelID, err)
	}

	return &ticket, nil
}

// Close marks a ticket closed. Only open tickets match, so closing twice
// affects zero rows and returns ok=false.
func (r *TicketRepository) Close(ctx context.Context, ticketID, closedBy int64) (bool, error) {
	query := `
		UPDATE tickets
		SET status = $1, closed_at = NOW(), closed_by = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.Exec(ctx, query, models.TicketStatusClosed, closedBy, ticketID, models.TicketStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to close ticket %d: %w", ticketID, err)
	}

	return result.RowsAffected() > 0, nil
}

// CountOpenByGuild returns the number of open tickets in a guild
func (r *TicketRepository) CountOpenByGuild(ctx context.Context, guildID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE guild_id = $1 AND status = $2
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, guildID, models.TicketStatusOpen).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open tickets for guild %d: %w", guildID, err)
	}

	return count, nil
}
