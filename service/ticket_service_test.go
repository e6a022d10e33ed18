package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"justbot/events"
	"justbot/models"
)

func TestTicketService_OpenTicket(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(MockRepositories{Ticket: mockTicketRepo})

	service := NewTicketService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTicketRepo.On("GetOpenByOpener", ctx, int64(789), int64(123456)).Return(nil, nil)
	mockTicketRepo.On("Create", ctx, mock.MatchedBy(func(tk *models.Ticket) bool {
		return tk.GuildID == 789 &&
			tk.OpenerID == 123456 &&
			tk.ChannelID == 5555 &&
			tk.Status == models.TicketStatusOpen
	})).Return(nil)

	ticket, err := service.OpenTicket(ctx, 789, 123456, "tester", 5555, "billing question")

	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	mockTicketRepo.AssertExpectations(t)
}

func TestTicketService_OpenTicket_AlreadyOpen(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(MockRepositories{Ticket: mockTicketRepo})

	service := NewTicketService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTicketRepo.On("GetOpenByOpener", ctx, int64(789), int64(123456)).Return(&models.Ticket{
		ID: 1, GuildID: 789, OpenerID: 123456, Status: models.TicketStatusOpen,
	}, nil)

	ticket, err := service.OpenTicket(ctx, 789, 123456, "tester", 5555, "another one")

	assert.ErrorIs(t, err, ErrTicketAlreadyOpen)
	assert.Nil(t, ticket)
	mockTicketRepo.AssertNotCalled(t, "Create")
}

func TestTicketService_CloseTicket_ByOpener(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Ticket:   mockTicketRepo,
		EventBus: mockPublisher,
	})

	service := NewTicketService(mockFactory)

	open := &models.Ticket{
		ID: 1, GuildID: 789, OpenerID: 123456, ChannelID: 5555,
		Status: models.TicketStatusOpen,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTicketRepo.On("GetOpenByChannel", ctx, int64(5555)).Return(open, nil)
	mockTicketRepo.On("Close", ctx, int64(1), int64(123456)).Return(true, nil)
	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		closed, ok := e.(events.TicketClosedEvent)
		return ok && closed.TicketID == 1 && closed.ClosedBy == 123456
	})).Return()

	ticket, err := service.CloseTicket(ctx, 5555, 123456, false)

	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusClosed, ticket.Status)
	mockPublisher.AssertExpectations(t)
}

func TestTicketService_CloseTicket_NonStaffStranger(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(MockRepositories{Ticket: mockTicketRepo})

	service := NewTicketService(mockFactory)

	open := &models.Ticket{
		ID: 1, GuildID: 789, OpenerID: 123456, ChannelID: 5555,
		Status: models.TicketStatusOpen,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockTicketRepo.On("GetOpenByChannel", ctx, int64(5555)).Return(open, nil)

	ticket, err := service.CloseTicket(ctx, 5555, 999999, false)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Nil(t, ticket)
	mockTicketRepo.AssertNotCalled(t, "Close")
}

func TestTicketService_CloseTicket_StaffCanCloseAnyTicket(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)
	mockPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(MockRepositories{
		Ticket:   mockTicketRepo,
		EventBus: mockPublisher,
	})

	service := NewTicketService(mockFactory)

	open := &models.Ticket{
		ID: 1, GuildID: 789, OpenerID: 123456, ChannelID: 5555,
		Status: models.TicketStatusOpen,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTicketRepo.On("GetOpenByChannel", ctx, int64(5555)).Return(open, nil)
	mockTicketRepo.On("Close", ctx, int64(1), int64(999999)).Return(true, nil)
	mockPublisher.On("Publish", mock.AnythingOfType("events.TicketClosedEvent")).Return()

	ticket, err := service.CloseTicket(ctx, 5555, 999999, true)

	assert.NoError(t, err)
	assert.Equal(t, int64(999999), *ticket.ClosedBy)
}

func TestTicketService_CloseTicket_NotATicketChannel(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTicketRepo := new(MockTicketRepository)

	mockUoW.SetRepositories(MockRepositories{Ticket: mockTicketRepo})

	service := NewTicketService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockTicketRepo.On("GetOpenByChannel", ctx, int64(4444)).Return(nil, nil)

	_, err := service.CloseTicket(ctx, 4444, 123456, true)

	assert.ErrorIs(t, err, ErrNotTicketChannel)
}
