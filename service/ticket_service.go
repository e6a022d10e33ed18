package service

import (
	"context"
	"fmt"

	"justbot/events"
	"justbot/models"
)

type ticketService struct {
	uowFactory UnitOfWorkFactory
}

// NewTicketService creates a new ticket service
func NewTicketService(uowFactory UnitOfWorkFactory) TicketService {
	return &ticketService{
		uowFactory: uowFactory,
	}
}

// GetOpenTicket returns a user's open ticket in a guild, or nil
func (s *ticketService) GetOpenTicket(ctx context.Context, guildID, openerID int64) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ticket, err := uow.TicketRepository().GetOpenByOpener(ctx, guildID, openerID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// OpenTicket records a newly created ticket channel, enforcing one open
// ticket per user per guild
func (s *ticketService) OpenTicket(ctx context.Context, guildID, openerID int64, username string, channelID int64, reason string) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.TicketRepository().GetOpenByOpener(ctx, guildID, openerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTicketAlreadyOpen
	}

	ticket := &models.Ticket{
		GuildID:   guildID,
		OpenerID:  openerID,
		Username:  username,
		ChannelID: channelID,
		Reason:    reason,
		Status:    models.TicketStatusOpen,
	}
	if err := uow.TicketRepository().Create(ctx, ticket); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

// CloseTicket closes the ticket bound to a channel. Only the opener or a
// staff member may close it.
func (s *ticketService) CloseTicket(ctx context.Context, channelID, closedBy int64, isStaff bool) (*models.Ticket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ticket, err := uow.TicketRepository().GetOpenByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrNotTicketChannel
	}
	if !isStaff && ticket.OpenerID != closedBy {
		return nil, ErrNotAuthorized
	}

	ok, err := uow.TicketRepository().Close(ctx, ticket.ID, closedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotTicketChannel
	}

	uow.EventBus().Publish(events.TicketClosedEvent{
		TicketID:  ticket.ID,
		GuildID:   ticket.GuildID,
		ChannelID: ticket.ChannelID,
		ClosedBy:  closedBy,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	ticket.Status = models.TicketStatusClosed
	ticket.ClosedBy = &closedBy
	return ticket, nil
}
